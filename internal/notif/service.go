package notif

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/logger"
)

// NotificationService writes and reads the per-user notification log.
type NotificationService struct {
	repo dbmysql.NotificationRepository
}

func NewNotificationService(repo dbmysql.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// NotifyCC records one "cc" notification per recipient. The sender is never notified.
func (s *NotificationService) NotifyCC(
	ctx context.Context,
	sender common.AuthContext,
	messageID, threadID string,
	recipients []string,
) error {
	batch := make([]*dbmysql.Notification, 0, len(recipients))
	for _, userID := range recipients {
		if userID == sender.ProfileID {
			continue
		}
		batch = append(batch, &dbmysql.Notification{
			UserID:  userID,
			Type:    common.NotificationCC,
			Title:   "You were added in CC",
			Message: fmt.Sprintf("%s added you to a message", displayHandle(sender)),
			Data: common.NotificationData{
				"message_id": messageID,
				"thread_id":  threadID,
				"added_by":   sender.ProfileID,
			},
		})
	}
	if len(batch) == 0 {
		return nil
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to record cc notifications: %w", err)
	}
	logger.Log.Debug("cc notifications recorded",
		zap.String("message_id", messageID),
		zap.Int("count", len(batch)))
	return nil
}

func (s *NotificationService) ForUser(ctx context.Context, userID string, limit, offset int) ([]*dbmysql.Notification, error) {
	notifications, err := s.repo.ByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func displayHandle(auth common.AuthContext) string {
	if auth.Handle != "" {
		return "@" + auth.Handle
	}
	return "Someone"
}
