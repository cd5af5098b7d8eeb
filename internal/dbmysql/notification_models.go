package dbmysql

import (
	"time"

	"gochat/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is one row of the append-only per-user fan-out log.
type Notification struct {
	ID        string                  `gorm:"primaryKey;size:36"`
	UserID    string                  `gorm:"not null;index;size:36"`
	Type      common.NotificationType `gorm:"not null;size:50"`
	Title     string                  `gorm:"not null;size:255"`
	Message   string                  `gorm:"not null;type:text"`
	Data      common.NotificationData `gorm:"type:json"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&Organization{},
		&Profile{},
		&Channel{},
		&ChannelMember{},
		&Thread{},
		&Message{},
		&Attachment{},
		&MessageCC{},
		&Notification{},
	}
}
