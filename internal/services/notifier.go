package services

import (
	"context"

	"github.com/ecopanier/backend/pkg/logger"
)

// SettingsNotifier turns settings change tasks into outbound notifications.
type SettingsNotifier struct {
	email *EmailService
}

func NewSettingsNotifier(email *EmailService) *SettingsNotifier {
	return &SettingsNotifier{email: email}
}

// ProcessSettingsChangedTask handles one settings change event from the
// task queue.
func (n *SettingsNotifier) ProcessSettingsChangedTask(ctx context.Context, task *SettingsChangedTask) error {
	actor := task.Actor
	if actor == "" {
		actor = "unknown"
	}

	if err := n.email.SendSettingsChangedNotification(actor, task.Changes); err != nil {
		logger.Errorf("settings change notification failed: %v", err)
		return err
	}

	LogInfo("settings", "notify", "settings change notification processed", task.ActorID, "", "", task.Changes)
	return nil
}
