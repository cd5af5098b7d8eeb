package dbmysql

import (
	"time"

	"gochat/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type Profile struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	OrgID       string      `gorm:"not null;uniqueIndex:idx_org_handle;size:36" json:"org_id"`
	Handle      string      `gorm:"not null;uniqueIndex:idx_org_handle;size:50" json:"handle"`
	DisplayName string      `gorm:"size:255" json:"display_name"`
	Role        common.Role `gorm:"type:enum('user','moderator','admin');default:'user'" json:"role"`
	Department  *string     `gorm:"size:100" json:"department,omitempty"`
	AvatarURL   *string     `gorm:"size:512" json:"avatar_url,omitempty"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
