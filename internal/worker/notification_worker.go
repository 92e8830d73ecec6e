package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/isp-workboard/internal/service"
)

// StartNotificationWorker subscribes the audit and escalation handlers to
// the event dispatcher. Handlers run synchronously after each commit.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
