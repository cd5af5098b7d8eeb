package notif

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifications []*dbmysql.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

func (m *MockNotificationRepository) ByID(ctx context.Context, id string) (*dbmysql.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*dbmysql.Notification)
	return n, args.Error(1)
}

func (m *MockNotificationRepository) ByUserID(ctx context.Context, userID string, limit, offset int) ([]*dbmysql.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	n, _ := args.Get(0).([]*dbmysql.Notification)
	return n, args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

var sender = common.AuthContext{ProfileID: "p1", OrgID: "org-1", Handle: "anna"}

func TestNotificationService_NotifyCC(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo)

	repo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(batch []*dbmysql.Notification) bool {
		if len(batch) != 2 {
			return false
		}
		for _, n := range batch {
			if n.Type != common.NotificationCC || n.Data["message_id"] != "m1" || n.Data["thread_id"] != "t1" {
				return false
			}
		}
		return batch[0].UserID == "p2" && batch[1].UserID == "p3"
	})).Return(nil).Once()

	err := svc.NotifyCC(context.Background(), sender, "m1", "t1", []string{"p2", "p1", "p3"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNotificationService_NotifyCC_OnlySender(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo)

	require.NoError(t, svc.NotifyCC(context.Background(), sender, "m1", "t1", []string{"p1"}))
	repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestNotificationService_NotifyCC_RepositoryError(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo)
	repo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("deadlock"))

	err := svc.NotifyCC(context.Background(), sender, "m1", "t1", []string{"p2"})

	assert.ErrorContains(t, err, "deadlock")
}

func TestNotificationService_Reads(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	repo.On("ByUserID", ctx, "p2", 20, 0).Return([]*dbmysql.Notification{{ID: "n1"}}, nil)
	repo.On("UnreadCount", ctx, "p2").Return(int64(1), nil)
	repo.On("MarkAsRead", ctx, "n1", "p2").Return(nil)

	list, err := svc.ForUser(ctx, "p2", 20, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := svc.UnreadCount(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.NoError(t, svc.MarkAsRead(ctx, "n1", "p2"))
	repo.AssertExpectations(t)
}
