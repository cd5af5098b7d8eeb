package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gochat/internal/chat/service"
	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/notif"
	"gochat/internal/realtime"
	"gochat/internal/store"
)

var viewer = common.AuthContext{ProfileID: "p1", OrgID: "org-1", Handle: "anna"}

// memLoader is an in-memory stand-in for the chat repository.
type memLoader struct {
	mu          sync.Mutex
	channels    []*dbmysql.Channel
	threads     map[string]*dbmysql.Thread
	messages    []*dbmysql.Message
	attachments []*dbmysql.Attachment
	threadLoads int
	failThreads error

	hold chan struct{}
	held chan struct{}
}

func newMemLoader() *memLoader {
	return &memLoader{threads: make(map[string]*dbmysql.Thread)}
}

func (l *memLoader) addThread(id, channelID string, lastMessageAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.threads[id] = &dbmysql.Thread{ID: id, ChannelID: channelID, CreatedAt: lastMessageAt, LastMessageAt: lastMessageAt}
}

// post mirrors the repository write: the message lands and the thread activity advances.
func (l *memLoader) post(id, threadID, body string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, &dbmysql.Message{ID: id, ThreadID: threadID, Body: body, CreatedAt: at})
	if t := l.threads[threadID]; t != nil && t.LastMessageAt.Before(at) {
		t.LastMessageAt = at
	}
}

func (l *memLoader) ChannelsByOrg(ctx context.Context, orgID string) ([]*dbmysql.Channel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*dbmysql.Channel
	for _, c := range l.channels {
		if c.OrgID == orgID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *memLoader) ThreadsByChannel(ctx context.Context, channelID string) ([]*dbmysql.Thread, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failThreads != nil {
		return nil, l.failThreads
	}
	var out []*dbmysql.Thread
	for _, t := range l.threads {
		if t.ChannelID == channelID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (l *memLoader) ThreadByID(ctx context.Context, id string) (*dbmysql.Thread, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.threads[id]
	if !ok {
		return nil, errors.New("thread not found")
	}
	cp := *t
	return &cp, nil
}

func (l *memLoader) MessagesByThread(ctx context.Context, threadID string) ([]*dbmysql.Message, error) {
	l.mu.Lock()
	l.threadLoads++
	var out []*dbmysql.Message
	for _, m := range l.messages {
		if m.ThreadID == threadID {
			cp := *m
			out = append(out, &cp)
		}
	}
	hold, held := l.hold, l.held
	l.hold, l.held = nil, nil
	l.mu.Unlock()

	// a held read returns what it saw before blocking
	if hold != nil {
		close(held)
		<-hold
	}
	return out, nil
}

// holdNextMessages makes the next MessagesByThread call block after reading. It returns a
// channel closed once that call is blocked and the func that releases it.
func (l *memLoader) holdNextMessages() (held <-chan struct{}, release func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hold = make(chan struct{})
	l.held = make(chan struct{})
	return l.held, func() { close(l.hold) }
}

func (l *memLoader) AttachmentsByThread(ctx context.Context, threadID string) ([]*dbmysql.Attachment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*dbmysql.Attachment
	for _, a := range l.attachments {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// CreateMessage stores msg without announcing it, as when the change signal is late.
func (l *memLoader) CreateMessage(ctx context.Context, msg *dbmysql.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg.ID = fmt.Sprintf("m%d", len(l.messages)+1)
	msg.CreatedAt = time.Now()
	cp := *msg
	l.messages = append(l.messages, &cp)
	return nil
}

func (l *memLoader) CreateMessageCCs(ctx context.Context, orgID string, ccs []*dbmysql.MessageCC) error {
	return nil
}

func (l *memLoader) ProfilesByIDs(ctx context.Context, orgID string, ids []string) ([]*dbmysql.Profile, error) {
	return nil, nil
}

func (l *memLoader) loadsOfThreads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.threadLoads
}

func newTestSession(t *testing.T, loader *memLoader) (*Session, *notif.Hub) {
	t.Helper()
	hub := notif.NewHub(1, 16)
	coordinator := realtime.NewCoordinator(hub)
	s, err := New(context.Background(), viewer, loader, coordinator)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
		coordinator.Close()
		hub.Shutdown()
	})
	return s, hub
}

func threadIDs(s *Session) []string {
	var ids []string
	for _, t := range s.Store().Threads() {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestNew_RequiresAuth(t *testing.T) {
	_, err := New(context.Background(), common.AuthContext{}, newMemLoader(), nil)
	assert.ErrorIs(t, err, common.ErrNoAuthContext)
}

func TestSession_OrganizationReloadsOnChange(t *testing.T) {
	loader := newMemLoader()
	loader.channels = []*dbmysql.Channel{
		{ID: "c2", OrgID: "org-1", Name: "general"},
		{ID: "cx", OrgID: "org-2", Name: "elsewhere"},
	}
	s, hub := newTestSession(t, loader)

	require.NoError(t, s.OpenOrganization(context.Background()))
	assert.Len(t, s.Store().Channels(), 1)
	assert.Equal(t, "org-1", s.Store().OrgID())

	loader.mu.Lock()
	loader.channels = append(loader.channels, &dbmysql.Channel{ID: "c1", OrgID: "org-1", Name: "announcements"})
	loader.mu.Unlock()
	hub.Publish(common.TopicChannels)

	assert.Eventually(t, func() bool {
		channels := s.Store().Channels()
		return len(channels) == 2 && channels[0].Name == "announcements"
	}, time.Second, 5*time.Millisecond)
}

func TestSession_ThreadOrderFollowsActivity(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	loader := newMemLoader()
	loader.addThread("older", "c1", base)
	loader.addThread("newer", "c1", base.Add(time.Hour))
	s, hub := newTestSession(t, loader)

	require.NoError(t, s.OpenChannel(context.Background(), "c1"))
	assert.Equal(t, []string{"newer", "older"}, threadIDs(s))

	loader.post("m1", "older", "bump", base.Add(2*time.Hour))
	hub.Publish(common.TopicThreads)

	assert.Eventually(t, func() bool {
		ids := threadIDs(s)
		return len(ids) == 2 && ids[0] == "older"
	}, time.Second, 5*time.Millisecond)
}

func TestSession_ThreadViewAndScopeSwitch(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	loader := newMemLoader()
	loader.addThread("t1", "c1", base)
	loader.post("m1", "t1", "first", base.Add(time.Minute))
	loader.attachments = []*dbmysql.Attachment{{ID: "a1", MessageID: "m1", OriginalName: "plan.pdf"}}
	s, hub := newTestSession(t, loader)
	ctx := context.Background()

	require.NoError(t, s.OpenChannel(ctx, "c1"))
	require.NoError(t, s.OpenThread(ctx, "t1"))
	assert.Equal(t, "t1", s.ThreadID())
	require.Len(t, s.Store().Messages(), 1)
	assert.Len(t, s.Store().Attachments("m1"), 1)

	loader.post("m2", "t1", "second", base.Add(2*time.Minute))
	hub.Publish(common.TopicMessages)
	assert.Eventually(t, func() bool { return len(s.Store().Messages()) == 2 }, time.Second, 5*time.Millisecond)

	// leaving the thread detaches its subscriptions and empties the view
	require.NoError(t, s.OpenChannel(ctx, "c1"))
	assert.Empty(t, s.ThreadID())
	assert.Empty(t, s.Store().Messages())
	assert.Eventually(t, func() bool {
		return hub.WatcherCount(common.TopicMessages) == 0 && hub.WatcherCount(common.TopicAttachments) == 0
	}, time.Second, 5*time.Millisecond)

	loads := loader.loadsOfThreads()
	hub.Publish(common.TopicMessages)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, loads, loader.loadsOfThreads())
	assert.Empty(t, s.Store().Messages())
}

func TestSession_ThreadKeepsNewestAcrossHandles(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	loader := newMemLoader()
	loader.addThread("t1", "c1", base)
	loader.post("m1", "t1", "first", base.Add(time.Minute))
	s, hub := newTestSession(t, loader)
	ctx := context.Background()

	require.NoError(t, s.OpenThread(ctx, "t1"))
	require.Len(t, s.Store().Messages(), 1)

	// the messages handle starts a reload that sees only m1 and stalls
	held, release := loader.holdNextMessages()
	hub.Publish(common.TopicMessages)
	<-held

	// the attachments handle starts later, sees m2 and applies first
	latest := base.Add(2 * time.Minute)
	loader.post("m2", "t1", "second", latest)
	hub.Publish(common.TopicAttachments)
	assert.Eventually(t, func() bool { return len(s.Store().Messages()) == 2 }, time.Second, 5*time.Millisecond)

	release()
	time.Sleep(20 * time.Millisecond)

	messages := s.Store().Messages()
	require.Len(t, messages, 2, "older reload must not overwrite the newer thread view")
	thread, ok := s.Store().Thread()
	require.True(t, ok)
	assert.True(t, thread.LastMessageAt.Equal(latest))
	assert.True(t, thread.LastMessageAt.Equal(messages[len(messages)-1].CreatedAt))
}

func TestSession_LocalEchoConfirmedByRefresh(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	loader := newMemLoader()
	loader.addThread("t1", "c1", base)
	loader.post("m1", "t1", "first", base.Add(time.Minute))
	s, _ := newTestSession(t, loader)
	ctx := context.Background()

	require.NoError(t, s.OpenThread(ctx, "t1"))

	composer := service.NewComposer(loader, nil, nil, nil, true).WithLocalStore(s.Store())
	attempt, err := composer.Send(ctx, viewer, service.Draft{ThreadID: "t1", Body: "on my way"})
	require.NoError(t, err)
	id := attempt.Message().ID

	assert.True(t, s.Store().Pending(store.KindMessages, id))
	assert.Len(t, s.Store().Messages(), 2)

	require.NoError(t, s.Refresh(ctx))
	assert.False(t, s.Store().Pending(store.KindMessages, id))
	assert.Len(t, s.Store().Messages(), 2)
}

func TestSession_RefreshWithoutView(t *testing.T) {
	s, _ := newTestSession(t, newMemLoader())

	assert.ErrorIs(t, s.Refresh(context.Background()), ErrNothingOpen)
}

func TestSession_InitialLoadFailure(t *testing.T) {
	loader := newMemLoader()
	loader.failThreads = errors.New("db down")
	s, _ := newTestSession(t, loader)

	err := s.OpenChannel(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, common.IsTransient(err))
}

func TestSession_Close(t *testing.T) {
	loader := newMemLoader()
	s, hub := newTestSession(t, loader)

	require.NoError(t, s.OpenOrganization(context.Background()))
	s.Close()
	s.Close()

	assert.Eventually(t, func() bool { return hub.WatcherCount(common.TopicChannels) == 0 }, time.Second, 5*time.Millisecond)
	assert.Error(t, s.OpenChannel(context.Background(), "c1"))
}

func TestSession_ChangesSignalAfterApply(t *testing.T) {
	loader := newMemLoader()
	loader.channels = []*dbmysql.Channel{{ID: "c1", OrgID: "org-1", Name: "general"}}
	s, hub := newTestSession(t, loader)

	require.NoError(t, s.OpenOrganization(context.Background()))
	select {
	case <-s.Changes():
	default:
		t.Fatal("initial load did not signal")
	}

	loader.mu.Lock()
	loader.channels = append(loader.channels, &dbmysql.Channel{ID: "c2", OrgID: "org-1", Name: "random"})
	loader.mu.Unlock()
	hub.Publish(common.TopicChannels)

	select {
	case <-s.Changes():
		assert.Len(t, s.Store().Channels(), 2)
	case <-time.After(time.Second):
		t.Fatal("no change signal after publish")
	}
}
