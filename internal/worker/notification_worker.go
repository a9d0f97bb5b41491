package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/service"
)

// StartNotificationWorker registers notification handlers and returns a stop
// func that waits for scheduled sends to drain.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) func(context.Context) {
	if notificationService == nil {
		return func(context.Context) {}
	}
	notificationService.RegisterHandlers()
	return func(ctx context.Context) {
		if err := notificationService.Wait(ctx); err != nil {
			logger.Warn("pending notifications dropped on shutdown", zap.Error(err))
		}
	}
}
