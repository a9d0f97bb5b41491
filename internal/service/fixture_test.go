package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/config"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/notify"
	"github.com/spec-kit/quote-service/internal/repository"
	"github.com/spec-kit/quote-service/internal/repository/memory"
	"github.com/spec-kit/quote-service/internal/storage"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) Messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

func (m *recordingMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type testEnv struct {
	t     *testing.T
	ctx   context.Context
	clock *testClock

	users       *memory.UserRepository
	memberships *memory.MembershipRepository
	quotesRepo  *memory.QuoteRepository
	history     *memory.QuoteHistoryRepository
	files       storage.Store
	mailer      *recordingMailer

	quotes        *QuoteService
	fileSvc       *FileService
	assign        *AssignmentService
	groups        *GroupService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	clock := &testClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		t:           t,
		ctx:         context.Background(),
		clock:       clock,
		users:       memory.NewUserRepository(),
		memberships: memory.NewMembershipRepository(),
		quotesRepo:  memory.NewQuoteRepository(),
		history:     memory.NewQuoteHistoryRepository(),
		files:       store,
		mailer:      &recordingMailer{},
	}
	groupRepo := memory.NewGroupRepository()
	dispatcher := events.NewInMemoryDispatcher(logger)
	policy := storage.UploadPolicy{MaxBytes: 1 << 20, AllowedTypes: []string{"text/plain"}}

	env.quotes = NewQuoteService(QuoteDependencies{
		QuoteRepo: env.quotesRepo, HistoryRepo: env.history, FileStore: store,
		UploadPolicy: policy, Dispatcher: dispatcher, Logger: logger,
	})
	env.fileSvc = NewFileService(FileDependencies{
		QuoteRepo: env.quotesRepo, HistoryRepo: env.history, FileStore: store,
		UploadPolicy: policy, Dispatcher: dispatcher, Logger: logger,
	})
	env.assign = NewAssignmentService(AssignmentDependencies{
		QuoteRepo: env.quotesRepo, UserRepo: env.users, GroupRepo: groupRepo,
		HistoryRepo: env.history, Dispatcher: dispatcher, Logger: logger,
	})
	env.groups = NewGroupService(GroupDependencies{
		GroupRepo: groupRepo, MembershipRepo: env.memberships, UserRepo: env.users,
		QuoteRepo: env.quotesRepo, Logger: logger,
	})
	env.notifications = NewNotificationService(config.MailConfig{AppURL: "https://app.example.com"}, NotificationDependencies{
		Dispatcher: dispatcher, Mailer: env.mailer, UserRepo: env.users,
		MembershipRepo: env.memberships, Logger: logger,
	})
	env.notifications.schedule = func(_ time.Duration, f func()) { f() }
	env.notifications.RegisterHandlers()

	env.quotes.now = clock.Now
	env.fileSvc.now = clock.Now
	env.assign.now = clock.Now
	env.groups.now = clock.Now
	return env
}

// user creates an active account of role and returns it hydrated.
func (e *testEnv) user(role domain.Role, email string) *domain.User {
	e.t.Helper()
	u := &domain.User{Name: email, Email: email, Role: role, Active: true}
	require.NoError(e.t, e.users.Create(e.ctx, u))
	return e.reload(u)
}

// reload fetches u again with its current group memberships.
func (e *testEnv) reload(u *domain.User) *domain.User {
	e.t.Helper()
	fresh, err := e.users.GetByID(e.ctx, u.ID)
	require.NoError(e.t, err)
	require.NoError(e.t, repository.HydrateMemberships(e.ctx, e.memberships, fresh))
	return fresh
}

func (e *testEnv) group(kind domain.GroupKind, name string, members ...*domain.User) *domain.Group {
	e.t.Helper()
	admin := &domain.User{ID: "bootstrap", Role: domain.RoleAdmin}
	g, err := e.groups.CreateGroup(e.ctx, admin, kind, GroupInput{Name: name})
	require.NoError(e.t, err)
	for _, m := range members {
		_, err := e.groups.AddMember(e.ctx, kind, g.ID, m.ID)
		require.NoError(e.t, err)
	}
	return g
}

func (e *testEnv) createQuote(customer *domain.User, files ...FileUpload) *domain.Quote {
	e.t.Helper()
	q, err := e.quotes.CreateQuote(e.ctx, e.reload(customer), QuoteCreateInput{Title: "Brackets", Files: files})
	require.NoError(e.t, err)
	return q
}

// stored returns the unfiltered quote as persisted.
func (e *testEnv) stored(id string) *domain.Quote {
	e.t.Helper()
	q, err := e.quotesRepo.GetByID(e.ctx, id)
	require.NoError(e.t, err)
	return q
}

func upload(name, content string) FileUpload {
	return FileUpload{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

func errorCode(err error) string {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func recipients(msgs []notify.Message) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, m.To...)
	}
	return out
}
