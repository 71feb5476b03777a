package services

import (
	"sync"
	"time"

	"github.com/mroshb/astro_bot/internal/models"
)

// Key identifies the scope that may hold at most one quiz. Under channel
// isolation UserID is zero; under user isolation each player in a chat has
// their own key.
type Key struct {
	ChatID int64
	UserID int64
}

// Session is one live quiz. It is only touched while its shard is locked.
type Session struct {
	ID            string
	Key           Key
	Mode          string
	Target        *models.CatalogEntry
	AcceptedNames []string
	ImageCursor   int
	HintStage     int
	CreatedAt     time.Time
}

type shard struct {
	mu       sync.Mutex
	sessions map[Key]*Session
}

// SessionStore owns every live session. Keys are sharded by chat, so all
// keys of one chat share a lock and channel-wide checks stay atomic with
// creation.
type SessionStore struct {
	shards []*shard
}

func NewSessionStore(shardCount int) *SessionStore {
	if shardCount <= 0 {
		shardCount = 16
	}
	s := &SessionStore{shards: make([]*shard, shardCount)}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[Key]*Session)}
	}
	return s
}

func (s *SessionStore) shardFor(chatID int64) *shard {
	idx := chatID % int64(len(s.shards))
	if idx < 0 {
		idx = -idx
	}
	return s.shards[idx]
}

// View is a locked handle on one key, valid only inside With.
type View struct {
	shard *shard
	key   Key
}

// With runs fn while holding the lock that covers key. Everything fn does
// through the view is atomic with respect to other calls on the same chat.
func (s *SessionStore) With(key Key, fn func(v *View)) {
	sh := s.shardFor(key.ChatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(&View{shard: sh, key: key})
}

// Get returns the session for the view's key.
func (v *View) Get() (*Session, bool) {
	sess, ok := v.shard.sessions[v.key]
	return sess, ok
}

// Create stores sess under the view's key, replacing nothing: callers check
// Get first.
func (v *View) Create(sess *Session) {
	sess.Key = v.key
	v.shard.sessions[v.key] = sess
}

// Destroy removes the view's session, if any.
func (v *View) Destroy() {
	delete(v.shard.sessions, v.key)
}

// ChannelOccupant returns a session held by a different key in the same chat.
func (v *View) ChannelOccupant() (*Session, bool) {
	for k, sess := range v.shard.sessions {
		if k.ChatID == v.key.ChatID && k != v.key {
			return sess, true
		}
	}
	return nil, false
}

// Len counts live sessions.
func (s *SessionStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}

// RemoveExpired deletes sessions created at or before cutoff and returns them.
func (s *SessionStore) RemoveExpired(cutoff time.Time) []*Session {
	var expired []*Session
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, sess := range sh.sessions {
			if !sess.CreatedAt.After(cutoff) {
				expired = append(expired, sess)
				delete(sh.sessions, k)
			}
		}
		sh.mu.Unlock()
	}
	return expired
}
