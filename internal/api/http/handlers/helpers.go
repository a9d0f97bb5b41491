package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quote-service/internal/auth"
	"github.com/spec-kit/quote-service/internal/domain"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

const maxPageSize = 100

var validate = validator.New(validator.WithRequiredStructEnabled())

// currentUser returns the authenticated account or a 401.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

// bind parses the body into req and runs struct validation.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return check(req)
}

func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError("validation failed", details)
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseTime(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid time, expected RFC 3339", map[string]any{field: value})
	}
	return &t, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileKindParam(c *fiber.Ctx) (domain.FileKind, error) {
	kind := domain.FileKind(strings.ToLower(c.Params("kind")))
	if !kind.Valid() {
		return "", apperrors.NewValidationError("unknown file kind", map[string]any{"kind": c.Params("kind")})
	}
	return kind, nil
}

func groupKindParam(c *fiber.Ctx) (domain.GroupKind, error) {
	kind := domain.GroupKind(strings.ToLower(c.Params("kind")))
	if !kind.Valid() {
		return "", apperrors.NewNotFound("group kind", map[string]any{"kind": c.Params("kind")})
	}
	return kind, nil
}

func indexParam(c *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return 0, apperrors.NewValidationError("invalid file index", map[string]any{"index": c.Params("index")})
	}
	return index, nil
}
