package dbmysql

import (
	"time"

	"gochat/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Channel struct {
	ID            string             `gorm:"primaryKey;size:36" json:"id"`
	OrgID         string             `gorm:"not null;index;size:36" json:"org_id"`
	Name          string             `gorm:"not null;size:100" json:"name"`
	Description   *string            `gorm:"type:text" json:"description,omitempty"`
	Type          common.ChannelType `gorm:"type:enum('public','private','dm');default:'public'" json:"type"`
	CreatedBy     string             `gorm:"not null;size:36" json:"created_by"`
	RetentionDays *int               `json:"retention_days,omitempty"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type ChannelMember struct {
	ChannelID string      `gorm:"primaryKey;size:36" json:"channel_id"`
	ProfileID string      `gorm:"primaryKey;size:36" json:"profile_id"`
	Role      common.Role `gorm:"type:enum('user','moderator','admin');default:'user'" json:"role"`
	JoinedAt  time.Time   `gorm:"autoCreateTime" json:"joined_at"`
}

type Thread struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ChannelID     string    `gorm:"not null;index:idx_channel_last_message,priority:1;size:36" json:"channel_id"`
	Title         *string   `gorm:"size:255" json:"title,omitempty"`
	CreatedBy     string    `gorm:"not null;size:36" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastMessageAt time.Time `gorm:"index:idx_channel_last_message,priority:2" json:"last_message_at"`
}

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
