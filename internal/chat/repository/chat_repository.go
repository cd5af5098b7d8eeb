package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/search"
)

var ErrNotFound = errors.New("record not found")

// ChatRepository is the persistent store for channels, threads, messages and their side tables.
type ChatRepository interface {
	CreateChannel(ctx context.Context, channel *dbmysql.Channel) error
	CreateThread(ctx context.Context, thread *dbmysql.Thread) error
	CreateMessage(ctx context.Context, msg *dbmysql.Message) error
	AmendMessage(ctx context.Context, id, body string) error
	CreateAttachment(ctx context.Context, att *dbmysql.Attachment) error
	CreateMessageCCs(ctx context.Context, orgID string, ccs []*dbmysql.MessageCC) error

	ProfilesByIDs(ctx context.Context, orgID string, ids []string) ([]*dbmysql.Profile, error)
	ChannelsByOrg(ctx context.Context, orgID string) ([]*dbmysql.Channel, error)
	ThreadsByChannel(ctx context.Context, channelID string) ([]*dbmysql.Thread, error)
	ThreadByID(ctx context.Context, id string) (*dbmysql.Thread, error)
	MessagesByThread(ctx context.Context, threadID string) ([]*dbmysql.Message, error)
	AttachmentsByThread(ctx context.Context, threadID string) ([]*dbmysql.Attachment, error)

	search.Source
}

type chatRepo struct {
	db        *gorm.DB
	publisher common.Publisher
	now       func() time.Time
}

// NewChatRepository builds the gorm repository. publisher may be nil; when set it receives
// the topics of multi-statement writes after they commit.
func NewChatRepository(db *gorm.DB, publisher common.Publisher) ChatRepository {
	return &chatRepo{
		db:        db,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *chatRepo) publish(topics ...common.Topic) {
	if r.publisher == nil {
		return
	}
	for _, topic := range topics {
		r.publisher.Publish(topic)
	}
}

func (r *chatRepo) CreateChannel(ctx context.Context, channel *dbmysql.Channel) error {
	if err := common.ValidateChannelName(channel.Name); err != nil {
		return common.NewValidationError("name", err, "")
	}
	if channel.Type == "" {
		channel.Type = common.ChannelPublic
	}
	if err := common.ValidateChannelType(channel.Type); err != nil {
		return common.NewValidationError("type", err, "")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return fmt.Errorf("failed to create channel: %w", err)
		}
		member := &dbmysql.ChannelMember{
			ChannelID: channel.ID,
			ProfileID: channel.CreatedBy,
			Role:      common.RoleAdmin,
		}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("failed to add channel creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.publish(common.TopicChannels)
	return nil
}

// CreateThread starts the thread's activity clock at its creation time.
func (r *chatRepo) CreateThread(ctx context.Context, thread *dbmysql.Thread) error {
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = r.now()
	}
	thread.UpdatedAt = thread.CreatedAt
	thread.LastMessageAt = thread.CreatedAt

	if err := r.db.WithContext(ctx).Create(thread).Error; err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	return nil
}

// CreateMessage inserts msg and moves the thread's last_message_at forward in one transaction.
// The column never moves backwards, so an older message arriving late leaves it untouched.
func (r *chatRepo) CreateMessage(ctx context.Context, msg *dbmysql.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now()
	}
	msg.UpdatedAt = msg.CreatedAt

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		err := tx.Model(&dbmysql.Thread{}).
			Where("id = ? AND last_message_at < ?", msg.ThreadID, msg.CreatedAt).
			Updates(map[string]interface{}{
				"last_message_at": msg.CreatedAt,
				"updated_at":      msg.CreatedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to advance thread activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.publish(common.TopicMessages, common.TopicThreads)
	return nil
}

// AmendMessage edits a body in place. Edits are not activity and leave the thread alone.
func (r *chatRepo) AmendMessage(ctx context.Context, id, body string) error {
	now := r.now()

	result := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"body":       body,
			"edited_at":  &now,
			"updated_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to amend message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *chatRepo) CreateAttachment(ctx context.Context, att *dbmysql.Attachment) error {
	if err := r.db.WithContext(ctx).Create(att).Error; err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

// CreateMessageCCs writes the whole batch or nothing. Every recipient must belong to orgID.
func (r *chatRepo) CreateMessageCCs(ctx context.Context, orgID string, ccs []*dbmysql.MessageCC) error {
	if len(ccs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(ccs))
	seen := make(map[string]struct{}, len(ccs))
	for _, cc := range ccs {
		if _, ok := seen[cc.UserID]; ok {
			continue
		}
		seen[cc.UserID] = struct{}{}
		ids = append(ids, cc.UserID)
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Profile{}).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check cc recipients: %w", err)
	}
	if int(count) != len(ids) {
		return common.NewValidationError("cc", common.ErrInvalidCC, "")
	}

	if err := r.db.WithContext(ctx).Create(&ccs).Error; err != nil {
		return fmt.Errorf("failed to create message cc: %w", err)
	}
	return nil
}

func (r *chatRepo) ProfilesByIDs(ctx context.Context, orgID string, ids []string) ([]*dbmysql.Profile, error) {
	var profiles []*dbmysql.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return profiles, nil
}

func (r *chatRepo) ChannelsByOrg(ctx context.Context, orgID string) ([]*dbmysql.Channel, error) {
	var channels []*dbmysql.Channel
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}
	return channels, nil
}

// ThreadsByChannel lists threads with the most recently active first.
func (r *chatRepo) ThreadsByChannel(ctx context.Context, channelID string) ([]*dbmysql.Thread, error) {
	var threads []*dbmysql.Thread
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("last_message_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get threads: %w", err)
	}
	return threads, nil
}

func (r *chatRepo) ThreadByID(ctx context.Context, id string) (*dbmysql.Thread, error) {
	var thread dbmysql.Thread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&thread).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("thread %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return &thread, nil
}

func (r *chatRepo) MessagesByThread(ctx context.Context, threadID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

func (r *chatRepo) AttachmentsByThread(ctx context.Context, threadID string) ([]*dbmysql.Attachment, error) {
	var attachments []*dbmysql.Attachment
	err := r.db.WithContext(ctx).
		Joins("JOIN messages ON messages.id = attachments.message_id").
		Where("messages.thread_id = ?", threadID).
		Order("attachments.created_at ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}
	return attachments, nil
}

const naturalLanguageMatch = "MATCH(m.body) AGAINST (? IN NATURAL LANGUAGE MODE)"

// SearchMessages matches bodies by substring or full-text relevance within one organization.
func (r *chatRepo) SearchMessages(ctx context.Context, orgID, query string, limit int) ([]search.MessageHit, error) {
	pattern := likePattern(query)

	var hits []search.MessageHit
	err := r.db.WithContext(ctx).
		Table("messages AS m").
		Select("m.id, m.thread_id, m.user_id, m.body, m.created_at, t.channel_id, t.title AS thread_title, c.name AS channel_name, "+
			naturalLanguageMatch+" AS relevance", query).
		Joins("JOIN threads t ON t.id = m.thread_id").
		Joins("JOIN channels c ON c.id = t.channel_id").
		Where("c.org_id = ?", orgID).
		Where("(LOWER(m.body) LIKE ? OR "+naturalLanguageMatch+")", pattern, query).
		Order("relevance DESC, m.created_at DESC").
		Limit(limit).
		Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return hits, nil
}

// SearchAttachments matches original file names, optionally narrowed by a content type fragment.
// The owning message is LEFT JOINed so a missing message yields a hit without a thread.
func (r *chatRepo) SearchAttachments(ctx context.Context, orgID, query, contentTypeHint string, limit int) ([]search.AttachmentHit, error) {
	q := r.db.WithContext(ctx).
		Table("attachments AS a").
		Select("a.id, a.message_id, a.original_name, a.content_type, a.size_bytes, a.storage_path, a.uploaded_by, a.created_at, m.thread_id").
		Joins("JOIN profiles p ON p.id = a.uploaded_by").
		Joins("LEFT JOIN messages m ON m.id = a.message_id").
		Where("p.org_id = ?", orgID).
		Where("LOWER(a.original_name) LIKE ?", likePattern(query))

	if hint := strings.TrimSpace(contentTypeHint); hint != "" {
		q = q.Where("LOWER(a.content_type) LIKE ?", likePattern(hint))
	}

	var hits []search.AttachmentHit
	if err := q.Order("a.created_at DESC").Limit(limit).Scan(&hits).Error; err != nil {
		return nil, fmt.Errorf("failed to search attachments: %w", err)
	}
	return hits, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
