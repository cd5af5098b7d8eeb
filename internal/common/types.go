package common

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Topic is an entity kind used as the unit of change subscription.
type Topic string

const (
	TopicChannels      Topic = "channels"
	TopicThreads       Topic = "threads"
	TopicMessages      Topic = "messages"
	TopicAttachments   Topic = "attachments"
	TopicMessageCC     Topic = "message_cc"
	TopicNotifications Topic = "notifications"
)

// String returns the string representation
func (t Topic) String() string {
	return string(t)
}

// IsValid checks if the topic is one the notifier knows about
func (t Topic) IsValid() bool {
	switch t {
	case TopicChannels, TopicThreads, TopicMessages, TopicAttachments, TopicMessageCC, TopicNotifications:
		return true
	}
	return false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

type ChannelType string

const (
	ChannelPublic  ChannelType = "public"
	ChannelPrivate ChannelType = "private"
	ChannelDM      ChannelType = "dm"
)

type NotificationType string

const (
	NotificationCC      NotificationType = "cc"
	NotificationMention NotificationType = "mention"
	NotificationSystem  NotificationType = "system"
)

type NotificationData map[string]interface{}

// Value stores NotificationData as a JSON column.
func (d NotificationData) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal notification data: %w", err)
	}
	return string(b), nil
}

func (d *NotificationData) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported notification data type %T", value)
	}
	return json.Unmarshal(raw, d)
}

// AuthContext is the ambient identity of a session. It is read-only for the core.
type AuthContext struct {
	ProfileID string
	OrgID     string
	Handle    string
	Role      Role
}

var ErrNoAuthContext = errors.New("no auth context")

type authContextKey struct{}

func WithAuth(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

func AuthFromContext(ctx context.Context) (AuthContext, error) {
	auth, ok := ctx.Value(authContextKey{}).(AuthContext)
	if !ok || auth.ProfileID == "" || auth.OrgID == "" {
		return AuthContext{}, ErrNoAuthContext
	}
	return auth, nil
}
