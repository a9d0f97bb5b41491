package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/observability"
)

// multipartSlack covers form fields and part headers on top of file bytes.
const multipartSlack = 1 << 20

// ServerOptions configures the fiber app.
type ServerOptions struct {
	AppName        string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// NewServer builds a fiber app with the global middlewares attached. Routes
// are registered separately.
func NewServer(opts ServerOptions, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	bodyLimit := fiber.DefaultBodyLimit
	if opts.MaxUploadBytes > 0 {
		// a request may carry several files; allow a handful at the per-file cap
		bodyLimit = int(opts.MaxUploadBytes)*5 + multipartSlack
	}
	app := fiber.New(fiber.Config{
		AppName:      opts.AppName,
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler(logger),
	})
	RegisterMiddlewares(app, logger, metrics, opts.RequestTimeout)
	return app
}
