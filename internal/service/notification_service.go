package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/config"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/notify"
	"github.com/spec-kit/quote-service/internal/repository"
)

// NotificationService emails the party a quote event makes relevant. Sends
// run after a short delay on their own goroutine; failures are logged and
// dropped.
type NotificationService struct {
	dispatcher  events.Dispatcher
	mailer      notify.Mailer
	users       repository.UserRepository
	memberships repository.MembershipRepository
	logger      *zap.Logger
	cfg         config.MailConfig

	schedule func(time.Duration, func())
	wg       sync.WaitGroup
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher     events.Dispatcher
	Mailer         notify.Mailer
	UserRepo       repository.UserRepository
	MembershipRepo repository.MembershipRepository
	Logger         *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.MailConfig, deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:  deps.Dispatcher,
		mailer:      deps.Mailer,
		users:       deps.UserRepo,
		memberships: deps.MembershipRepo,
		logger:      logger,
		cfg:         cfg,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventQuoteCreated, n.handleQuoteCreated)
	n.dispatcher.Subscribe(events.EventQuoteAssigned, n.handleQuoteAssigned)
	n.dispatcher.Subscribe(events.EventQuoteStatusChanged, n.handleStatusChanged)
}

// Wait blocks until scheduled sends have finished or ctx is done.
func (n *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *NotificationService) handleQuoteCreated(_ context.Context, event events.Event) error {
	n.later(event, notify.KindQuoteCreated, n.quoterRecipients(nil))
	return nil
}

func (n *NotificationService) handleQuoteAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QuoteAssignedPayload)
	if !ok {
		return nil
	}
	n.later(event, notify.KindQuoteAssigned, func(ctx context.Context) ([]domain.User, error) {
		var ids []string
		if payload.SupplierID != nil {
			ids = append(ids, *payload.SupplierID)
		}
		groupMembers, err := n.supplierGroupMembers(ctx, payload.AddedGroups)
		if err != nil {
			return nil, err
		}
		return n.activeUsers(ctx, append(ids, groupMembers...))
	})
	return nil
}

func (n *NotificationService) handleStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QuoteStatusChangedPayload)
	if !ok || event.Quote == nil {
		return nil
	}
	quote := event.Quote
	switch payload.NewStatus {
	case domain.QuoteStatusSupplierQuoted:
		n.later(event, notify.KindSupplierQuoted, n.quoterRecipients(quote.QuoterID))
	case domain.QuoteStatusQuoted:
		n.later(event, notify.KindQuoteQuoted, func(ctx context.Context) ([]domain.User, error) {
			return n.activeUsers(ctx, []string{quote.CustomerID})
		})
	case domain.QuoteStatusRejected:
		if event.Actor.Role == domain.RoleSupplier {
			n.later(event, notify.KindQuoteRejected, n.quoterRecipients(quote.QuoterID))
			return nil
		}
		n.later(event, notify.KindQuoteRejected, func(ctx context.Context) ([]domain.User, error) {
			var ids []string
			if quote.SupplierID != nil {
				ids = append(ids, *quote.SupplierID)
			}
			members, err := n.supplierGroupMembers(ctx, quote.AssignedGroups)
			if err != nil {
				return nil, err
			}
			return n.activeUsers(ctx, append(ids, members...))
		})
	}
	return nil
}

type recipientFunc func(ctx context.Context) ([]domain.User, error)

// later schedules the send. Recipients are resolved when the send runs so
// the triggering request never waits on the lookups.
func (n *NotificationService) later(event events.Event, kind notify.Kind, recipients recipientFunc) {
	if n.mailer == nil || event.Quote == nil {
		return
	}
	quote := event.Quote
	n.wg.Add(1)
	n.schedule(n.cfg.SendDelay(), func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		users, err := recipients(ctx)
		if err != nil {
			n.logger.Warn("resolve notification recipients failed",
				zap.String("quote_id", quote.ID), zap.String("kind", string(kind)), zap.Error(err))
			return
		}
		to := emails(users, event.Actor.UserID)
		if len(to) == 0 {
			n.logger.Debug("notification has no recipients", zap.String("quote_id", quote.ID), zap.String("kind", string(kind)))
			return
		}
		subject, body := notify.Render(kind, quote, n.cfg.AppURL)
		if err := n.mailer.Send(ctx, notify.Message{To: to, Subject: subject, Text: body}); err != nil {
			n.logger.Warn("send notification failed",
				zap.String("quote_id", quote.ID), zap.String("kind", string(kind)), zap.Error(err))
			return
		}
		n.logger.Info("notification sent",
			zap.String("quote_id", quote.ID), zap.String("kind", string(kind)), zap.Int("recipients", len(to)))
	})
}

// quoterRecipients targets the assigned quoter, or every active quoter when
// nobody has claimed the quote yet.
func (n *NotificationService) quoterRecipients(quoterID *string) recipientFunc {
	return func(ctx context.Context) ([]domain.User, error) {
		if quoterID != nil {
			return n.activeUsers(ctx, []string{*quoterID})
		}
		role := domain.RoleQuoter
		active := true
		return n.users.List(ctx, repository.UserFilter{Role: &role, Active: &active, Limit: 500})
	}
}

func (n *NotificationService) supplierGroupMembers(ctx context.Context, groupIDs []string) ([]string, error) {
	var ids []string
	for _, groupID := range groupIDs {
		members, err := n.memberships.ListSupplierMembers(ctx, groupID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, members...)
	}
	return ids, nil
}

func (n *NotificationService) activeUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	active := true
	return n.users.List(ctx, repository.UserFilter{IDs: ids, Active: &active, Limit: len(ids)})
}

// emails returns the distinct addresses of users, leaving out the actor.
func emails(users []domain.User, actorID string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, u := range users {
		if u.ID == actorID || u.Email == "" {
			continue
		}
		if _, ok := seen[u.Email]; ok {
			continue
		}
		seen[u.Email] = struct{}{}
		out = append(out, u.Email)
	}
	return out
}
