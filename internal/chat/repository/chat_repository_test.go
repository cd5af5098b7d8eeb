package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func newTestRepo(db *gorm.DB, now time.Time) *chatRepo {
	return &chatRepo{db: db, now: func() time.Time { return now }}
}

type recordingPublisher struct {
	topics []common.Topic
}

func (p *recordingPublisher) Publish(topic common.Topic) {
	p.topics = append(p.topics, topic)
}

func TestChatRepository_CreateMessage(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "inserts message and advances thread",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(
					"UPDATE `threads` SET `last_message_at`=?,`updated_at`=? WHERE id = ? AND last_message_at < ?")).
					WithArgs(createdAt, createdAt, "t1", createdAt).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "older message leaves thread untouched",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta("UPDATE `threads`")).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
		},
		{
			name: "insert failure rolls back",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name: "thread update failure rolls back the insert",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta("UPDATE `threads`")).
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			tt.mockSetup(mock)

			repo := newTestRepo(db, createdAt)
			msg := &dbmysql.Message{ThreadID: "t1", UserID: "p1", Body: "hello"}
			err := repo.CreateMessage(context.Background(), msg)

			if tt.expectError {
				assert.ErrorIs(t, err, assert.AnError)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, msg.ID)
				assert.Equal(t, createdAt, msg.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestChatRepository_CreateMessage_PublishesAfterCommit(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("committed", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `threads`")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		pub := &recordingPublisher{}
		repo := newTestRepo(db, createdAt)
		repo.publisher = pub

		require.NoError(t, repo.CreateMessage(context.Background(), &dbmysql.Message{ThreadID: "t1", UserID: "p1"}))
		assert.Equal(t, []common.Topic{common.TopicMessages, common.TopicThreads}, pub.topics)
	})

	t.Run("rolled back", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		pub := &recordingPublisher{}
		repo := newTestRepo(db, createdAt)
		repo.publisher = pub

		require.Error(t, repo.CreateMessage(context.Background(), &dbmysql.Message{ThreadID: "t1", UserID: "p1"}))
		assert.Empty(t, pub.topics)
	})
}

func TestChatRepository_CreateThread_StartsActivityClock(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `threads`")).
		WithArgs(sqlmock.AnyArg(), "c1", nil, "p1", now, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	thread := &dbmysql.Thread{ChannelID: "c1", CreatedBy: "p1"}
	require.NoError(t, newTestRepo(db, now).CreateThread(context.Background(), thread))

	assert.Equal(t, thread.CreatedAt, thread.LastMessageAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_CreateChannel_AddsCreatorAsAdmin(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `channels`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `channel_members`")).
		WithArgs(sqlmock.AnyArg(), "p1", common.RoleAdmin, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	channel := &dbmysql.Channel{OrgID: "org-1", Name: "general", CreatedBy: "p1"}
	err := NewChatRepository(db, nil).CreateChannel(context.Background(), channel)

	require.NoError(t, err)
	assert.Equal(t, common.ChannelPublic, channel.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_CreateChannel_InvalidName(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewChatRepository(db, nil).CreateChannel(context.Background(), &dbmysql.Channel{OrgID: "org-1", CreatedBy: "p1"})

	assert.True(t, common.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_AmendMessage(t *testing.T) {
	now := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

	t.Run("sets edited_at without touching the thread", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE `messages` SET `body`=?,`edited_at`=?,`updated_at`=? WHERE id = ?")).
			WithArgs("fixed typo", now, now, "m1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, newTestRepo(db, now).AmendMessage(context.Background(), "m1", "fixed typo"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown message", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `messages`")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := newTestRepo(db, now).AmendMessage(context.Background(), "missing", "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestChatRepository_CreateMessageCCs(t *testing.T) {
	ccs := func() []*dbmysql.MessageCC {
		return []*dbmysql.MessageCC{
			{MessageID: "m1", UserID: "p2", AddedBy: "p1"},
			{MessageID: "m1", UserID: "p3", AddedBy: "p1"},
		}
	}

	t.Run("all recipients in organization", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `profiles` WHERE org_id = ? AND id IN (?,?)")).
			WithArgs("org-1", "p2", "p3").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `message_cc`")).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		require.NoError(t, NewChatRepository(db, nil).CreateMessageCCs(context.Background(), "org-1", ccs()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("recipient outside organization", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `profiles`")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := NewChatRepository(db, nil).CreateMessageCCs(context.Background(), "org-1", ccs())

		assert.ErrorIs(t, err, common.ErrInvalidCC)
		assert.True(t, common.IsValidation(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChatRepository_ThreadsByChannel(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "channel_id", "title", "created_by", "created_at", "updated_at", "last_message_at"}).
		AddRow("t2", "c1", "Launch", "p1", older, newer, newer).
		AddRow("t1", "c1", nil, "p1", older, older, older)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `threads` WHERE channel_id = ? ORDER BY last_message_at DESC")).
		WithArgs("c1").
		WillReturnRows(rows)

	threads, err := NewChatRepository(db, nil).ThreadsByChannel(context.Background(), "c1")

	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "t2", threads[0].ID)
	assert.Nil(t, threads[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_ThreadByID_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `threads` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewChatRepository(db, nil).ThreadByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatRepository_SearchMessages(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "thread_id", "user_id", "body", "created_at", "channel_id", "thread_title", "channel_name", "relevance"}).
		AddRow("m1", "t1", "p1", "Q3 budget 100%", time.Now(), "c1", "Planning", "finance", 1.5)
	mock.ExpectQuery(`FROM messages AS m JOIN threads t ON t.id = m.thread_id JOIN channels c ON c.id = t.channel_id WHERE c.org_id = \? AND \(LOWER\(m.body\) LIKE \? OR MATCH`).
		WithArgs("Budget 100%", "org-1", `%budget 100\%%`, "Budget 100%", 20).
		WillReturnRows(rows)

	hits, err := NewChatRepository(db, nil).SearchMessages(context.Background(), "org-1", "Budget 100%", 20)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "finance", hits[0].ChannelName)
	require.NotNil(t, hits[0].ThreadTitle)
	assert.Equal(t, "Planning", *hits[0].ThreadTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_SearchAttachments(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "message_id", "original_name", "content_type", "size_bytes", "storage_path", "uploaded_by", "created_at", "thread_id"}).
		AddRow("a1", "m1", "Plan.pdf", "application/pdf", 1024, "m1/x.pdf", "p1", time.Now(), "t1").
		AddRow("a2", "m2", "plan-old.pdf", "application/pdf", 2048, "m2/y.pdf", "p1", time.Now(), nil)
	mock.ExpectQuery(`FROM attachments AS a JOIN profiles p ON p.id = a.uploaded_by LEFT JOIN messages m ON m.id = a.message_id WHERE p.org_id = \? AND LOWER\(a.original_name\) LIKE \? AND LOWER\(a.content_type\) LIKE \?`).
		WithArgs("org-1", "%plan%", "%pdf%", 20).
		WillReturnRows(rows)

	hits, err := NewChatRepository(db, nil).SearchAttachments(context.Background(), "org-1", "plan", "PDF", 20)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.NotNil(t, hits[0].ThreadID)
	assert.Equal(t, "t1", *hits[0].ThreadID)
	assert.Nil(t, hits[1].ThreadID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, likePattern(" 50% OFF_now "))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}
