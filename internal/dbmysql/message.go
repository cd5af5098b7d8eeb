package dbmysql

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	ThreadID  string     `gorm:"not null;index:idx_thread_created,priority:1;size:36" json:"thread_id"`
	UserID    string     `gorm:"not null;index;size:36" json:"user_id"`
	Body      string     `gorm:"type:text;index:idx_body_fulltext,class:FULLTEXT" json:"body"`
	ReplyTo   *string    `gorm:"size:36" json:"reply_to,omitempty"`
	TTLHours  *int       `json:"ttl_hours,omitempty"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	CreatedAt time.Time  `gorm:"index:idx_thread_created,priority:2" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Attachment struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	MessageID    string    `gorm:"not null;index;size:36" json:"message_id"`
	Filename     string    `gorm:"not null;size:255" json:"filename"`
	OriginalName string    `gorm:"not null;size:255;index" json:"original_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	StoragePath  string    `gorm:"not null;size:512;uniqueIndex" json:"storage_path"`
	UploadedBy   string    `gorm:"not null;index;size:36" json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// MessageCC is an explicit additional recipient of a message.
type MessageCC struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	MessageID string    `gorm:"not null;uniqueIndex:idx_message_cc;size:36" json:"message_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_message_cc;size:36" json:"user_id"`
	AddedBy   string    `gorm:"not null;size:36" json:"added_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MessageCC) TableName() string {
	return "message_cc"
}

func (c *MessageCC) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
