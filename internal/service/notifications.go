package service

import (
	"context"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// DefaultNotificationLimit bounds notification listings when the caller
// does not specify one.
const DefaultNotificationLimit = 50

// Notifications implements per-user notification access.
type Notifications struct {
	st store.Store
}

// NewNotifications creates the notification service.
func NewNotifications(st store.Store) *Notifications {
	return &Notifications{st: st}
}

// List returns the user's notifications, newest first.
func (s *Notifications) List(ctx context.Context, userID string, limit int) ([]*NotificationView, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	notifications, err := s.st.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*NotificationView, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationView(n))
	}
	return out, nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *Notifications) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.st.CountUnreadNotifications(ctx, userID)
}

// MarkRead flags one notification as read. Only its owner may do so.
func (s *Notifications) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.st.GetNotificationByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrAccessDenied
	}
	return s.st.MarkNotificationRead(ctx, notificationID)
}

// MarkAllRead flags every notification of the user as read.
func (s *Notifications) MarkAllRead(ctx context.Context, userID string) error {
	return s.st.MarkAllNotificationsRead(ctx, userID)
}
