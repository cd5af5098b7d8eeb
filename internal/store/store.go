// Package store keeps the entities a viewing session currently shows.
package store

import (
	"fmt"
	"sync"

	"gochat/internal/dbmysql"
)

type Kind string

const (
	KindChannels    Kind = "channels"
	KindThreads     Kind = "threads"
	KindMessages    Kind = "messages"
	KindAttachments Kind = "attachments"
)

// Store is safe for concurrent use. Loads replace a whole slice; local upserts are
// optimistic and stay marked pending until the next load of their slice.
type Store struct {
	mu sync.RWMutex

	orgID     string
	channels  []dbmysql.Channel
	channelID string
	threads   []dbmysql.Thread

	thread      *dbmysql.Thread
	messages    []dbmysql.Message
	attachments map[string][]dbmysql.Attachment

	pending map[Kind]map[string]struct{}
}

func New() *Store {
	return &Store{
		attachments: make(map[string][]dbmysql.Attachment),
		pending:     make(map[Kind]map[string]struct{}),
	}
}

func (s *Store) LoadChannels(orgID string, channels []*dbmysql.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orgID = orgID
	s.channels = derefAll(channels)
	delete(s.pending, KindChannels)
}

func (s *Store) LoadThreads(channelID string, threads []*dbmysql.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channelID = channelID
	s.threads = derefAll(threads)
	delete(s.pending, KindThreads)
}

// LoadThread replaces the open thread, its messages and their attachments together.
func (s *Store) LoadThread(thread *dbmysql.Thread, messages []*dbmysql.Message, attachments []*dbmysql.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if thread != nil {
		t := *thread
		s.thread = &t
	} else {
		s.thread = nil
	}
	s.messages = derefAll(messages)
	s.attachments = make(map[string][]dbmysql.Attachment)
	for _, a := range attachments {
		if a == nil {
			continue
		}
		s.attachments[a.MessageID] = append(s.attachments[a.MessageID], *a)
	}
	delete(s.pending, KindMessages)
	delete(s.pending, KindAttachments)
}

// ClearThread forgets the open thread, e.g. when the session moves to another channel.
func (s *Store) ClearThread() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.thread = nil
	s.messages = nil
	s.attachments = make(map[string][]dbmysql.Attachment)
	delete(s.pending, KindMessages)
	delete(s.pending, KindAttachments)
}

// UpsertLocal inserts or replaces one entity ahead of the authoritative reload.
// Related entities are left as they are, e.g. a message does not move its thread's activity time.
func (s *Store) UpsertLocal(entity interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := entity.(type) {
	case *dbmysql.Channel:
		s.channels = upsert(s.channels, *e, func(c dbmysql.Channel) string { return c.ID })
		s.markPending(KindChannels, e.ID)
	case *dbmysql.Thread:
		s.threads = upsert(s.threads, *e, func(t dbmysql.Thread) string { return t.ID })
		s.markPending(KindThreads, e.ID)
	case *dbmysql.Message:
		if s.thread == nil || s.thread.ID != e.ThreadID {
			return fmt.Errorf("message %s does not belong to the open thread", e.ID)
		}
		s.messages = upsert(s.messages, *e, func(m dbmysql.Message) string { return m.ID })
		s.markPending(KindMessages, e.ID)
	case *dbmysql.Attachment:
		s.attachments[e.MessageID] = upsert(s.attachments[e.MessageID], *e, func(a dbmysql.Attachment) string { return a.ID })
		s.markPending(KindAttachments, e.ID)
	default:
		return fmt.Errorf("unsupported entity type %T", entity)
	}
	return nil
}

func (s *Store) Pending(kind Kind, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.pending[kind][id]
	return ok
}

// Get returns a copy of the entity of the given kind, e.g. a dbmysql.Message for KindMessages.
func (s *Store) Get(kind Kind, id string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case KindChannels:
		return find(s.channels, id, func(c dbmysql.Channel) string { return c.ID })
	case KindThreads:
		if s.thread != nil && s.thread.ID == id {
			return *s.thread, true
		}
		return find(s.threads, id, func(t dbmysql.Thread) string { return t.ID })
	case KindMessages:
		return find(s.messages, id, func(m dbmysql.Message) string { return m.ID })
	case KindAttachments:
		for _, atts := range s.attachments {
			if a, ok := find(atts, id, func(a dbmysql.Attachment) string { return a.ID }); ok {
				return a, true
			}
		}
	}
	return nil, false
}

func (s *Store) OrgID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orgID
}

func (s *Store) ChannelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID
}

func (s *Store) Channels() []dbmysql.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dbmysql.Channel(nil), s.channels...)
}

func (s *Store) Threads() []dbmysql.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dbmysql.Thread(nil), s.threads...)
}

func (s *Store) Thread() (dbmysql.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.thread == nil {
		return dbmysql.Thread{}, false
	}
	return *s.thread, true
}

func (s *Store) Messages() []dbmysql.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dbmysql.Message(nil), s.messages...)
}

func (s *Store) Attachments(messageID string) []dbmysql.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dbmysql.Attachment(nil), s.attachments[messageID]...)
}

func (s *Store) markPending(kind Kind, id string) {
	if s.pending[kind] == nil {
		s.pending[kind] = make(map[string]struct{})
	}
	s.pending[kind][id] = struct{}{}
}

func derefAll[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func upsert[T any](items []T, item T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func find[T any](items []T, want string, id func(T) string) (interface{}, bool) {
	for _, item := range items {
		if id(item) == want {
			return item, true
		}
	}
	return nil, false
}
