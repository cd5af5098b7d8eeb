// Package session binds a store to the subscriptions of what one user is currently viewing.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/logger"
	"gochat/internal/realtime"
	"gochat/internal/store"
)

var ErrNothingOpen = errors.New("session has no open view")

// Loader reads the slices a session shows.
type Loader interface {
	ChannelsByOrg(ctx context.Context, orgID string) ([]*dbmysql.Channel, error)
	ThreadsByChannel(ctx context.Context, channelID string) ([]*dbmysql.Thread, error)
	ThreadByID(ctx context.Context, id string) (*dbmysql.Thread, error)
	MessagesByThread(ctx context.Context, threadID string) ([]*dbmysql.Message, error)
	AttachmentsByThread(ctx context.Context, threadID string) ([]*dbmysql.Attachment, error)
}

type scope int

const (
	scopeOrganization scope = iota
	scopeChannel
	scopeThread
)

type Session struct {
	auth        common.AuthContext
	loader      Loader
	coordinator *realtime.Coordinator
	store       *store.Store

	ctx    context.Context
	cancel context.CancelFunc

	changes chan struct{}

	mu       sync.Mutex
	handles  map[scope][]*realtime.Handle
	threadID string
	closed   bool
}

func New(ctx context.Context, auth common.AuthContext, loader Loader, coordinator *realtime.Coordinator) (*Session, error) {
	if auth.ProfileID == "" || auth.OrgID == "" {
		return nil, common.ErrNoAuthContext
	}
	sctx, cancel := context.WithCancel(common.WithAuth(ctx, auth))
	return &Session{
		auth:        auth,
		loader:      loader,
		coordinator: coordinator,
		store:       store.New(),
		changes:     make(chan struct{}, 1),
		ctx:         sctx,
		cancel:      cancel,
		handles:     make(map[scope][]*realtime.Handle),
	}, nil
}

func (s *Session) Store() *store.Store { return s.store }

func (s *Session) Auth() common.AuthContext { return s.auth }

// Changes signals after a reload was applied to the store. Signals coalesce; read the store
// after receiving one.
func (s *Session) Changes() <-chan struct{} { return s.changes }

func (s *Session) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// OpenOrganization shows the organization's channel list and keeps it current.
func (s *Session) OpenOrganization(ctx context.Context) error {
	orgID := s.auth.OrgID
	reload := func(ctx context.Context) (func(), error) {
		channels, err := s.loader.ChannelsByOrg(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return func() { s.store.LoadChannels(orgID, channels) }, nil
	}
	return s.open(ctx, scopeOrganization, reload, common.TopicChannels)
}

// OpenChannel shows a channel's threads, most recently active first. The open thread, if any, is closed.
func (s *Session) OpenChannel(ctx context.Context, channelID string) error {
	s.mu.Lock()
	s.detachLocked(scopeThread)
	s.threadID = ""
	s.mu.Unlock()
	s.store.ClearThread()

	reload := func(ctx context.Context) (func(), error) {
		threads, err := s.loader.ThreadsByChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}
		return func() { s.store.LoadThreads(channelID, threads) }, nil
	}
	return s.open(ctx, scopeChannel, reload, common.TopicThreads)
}

// OpenThread shows a thread with its messages and attachments.
func (s *Session) OpenThread(ctx context.Context, threadID string) error {
	reload := func(ctx context.Context) (func(), error) {
		var (
			thread      *dbmysql.Thread
			messages    []*dbmysql.Message
			attachments []*dbmysql.Attachment
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			thread, err = s.loader.ThreadByID(gctx, threadID)
			return err
		})
		g.Go(func() (err error) {
			messages, err = s.loader.MessagesByThread(gctx, threadID)
			return err
		})
		g.Go(func() (err error) {
			attachments, err = s.loader.AttachmentsByThread(gctx, threadID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return func() { s.store.LoadThread(thread, messages, attachments) }, nil
	}

	if err := s.open(ctx, scopeThread, reload, common.TopicMessages, common.TopicAttachments); err != nil {
		return err
	}
	s.mu.Lock()
	s.threadID = threadID
	s.mu.Unlock()
	return nil
}

// Refresh reloads the innermost open view now, e.g. to confirm a local write.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	var h *realtime.Handle
	for _, sc := range []scope{scopeThread, scopeChannel, scopeOrganization} {
		if handles := s.handles[sc]; len(handles) > 0 {
			h = handles[0]
			break
		}
	}
	s.mu.Unlock()

	if h == nil {
		return ErrNothingOpen
	}
	return h.Sync(ctx)
}

// ThreadID is the open thread, empty when none.
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// Close detaches every subscription. The store keeps its last contents.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sc := range s.handles {
		s.detachLocked(sc)
	}
	s.cancel()
}

// open replaces the handles of sc: the old ones are detached before the new ones attach,
// so a late reload of the previous scope can never write into the store.
func (s *Session) open(ctx context.Context, sc scope, reload realtime.ReloadFunc, topics ...common.Topic) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	s.detachLocked(sc)
	reload = newSliceGuard(s.signal).wrap(reload)

	handles := make([]*realtime.Handle, 0, len(topics))
	for _, topic := range topics {
		h, err := s.coordinator.Subscribe(s.ctx, topic, reload)
		if err != nil {
			for _, prev := range handles {
				prev.Unsubscribe()
			}
			s.mu.Unlock()
			return err
		}
		handles = append(handles, h)
	}
	s.handles[sc] = handles
	s.mu.Unlock()

	if err := handles[0].Sync(ctx); err != nil {
		logger.Log.Warn("initial load failed",
			zap.String("profile_id", s.auth.ProfileID),
			zap.String("topic", topics[0].String()),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) detachLocked(sc scope) {
	for _, h := range s.handles[sc] {
		h.Unsubscribe()
	}
	delete(s.handles, sc)
}

// sliceGuard orders results across the handles of one scope. Each handle guards its own
// sequence; a thread scope has two handles feeding the same slice.
type sliceGuard struct {
	mu        sync.Mutex
	issued    uint64
	applied   uint64
	onApplied func()
}

func newSliceGuard(onApplied func()) *sliceGuard { return &sliceGuard{onApplied: onApplied} }

func (g *sliceGuard) wrap(reload realtime.ReloadFunc) realtime.ReloadFunc {
	return func(ctx context.Context) (func(), error) {
		g.mu.Lock()
		g.issued++
		ticket := g.issued
		g.mu.Unlock()

		apply, err := reload(ctx)
		if err != nil || apply == nil {
			return apply, err
		}
		return func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if ticket <= g.applied {
				return
			}
			g.applied = ticket
			apply()
			if g.onApplied != nil {
				g.onApplied()
			}
		}, nil
	}
}
