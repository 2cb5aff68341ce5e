package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"pixgenie/internal/gallery"
)

const (
	sessionCookie      = "pixgenie_session"
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxSessions = 1000
)

type sessionEntry struct {
	session  *gallery.Session
	lastSeen time.Time
}

// sessionStore keeps one gallery session per browser. Idle sessions expire
// after ttl and the store never holds more than max entries.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	create   func() *gallery.Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

func newSessionStore(create func() *gallery.Session, ttl time.Duration, maxSessions int) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &sessionStore{
		sessions: make(map[string]*sessionEntry),
		create:   create,
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
	}
}

// lookup returns the caller's session without creating one.
func (st *sessionStore) lookup(r *http.Request) (*gallery.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lookupLocked(r)
}

func (st *sessionStore) lookupLocked(r *http.Request) (*gallery.Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	entry, ok := st.sessions[cookie.Value]
	if !ok {
		return nil, false
	}
	now := st.now()
	if now.Sub(entry.lastSeen) > st.ttl && !entry.session.Busy() {
		delete(st.sessions, cookie.Value)
		return nil, false
	}
	entry.lastSeen = now
	return entry.session, true
}

// get returns the caller's session, starting a new one and setting the
// cookie when the request has none or an unknown id.
func (st *sessionStore) get(w http.ResponseWriter, r *http.Request) *gallery.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if session, ok := st.lookupLocked(r); ok {
		return session
	}

	st.evictLocked()

	id := uuid.NewString()
	session := st.create()
	st.sessions[id] = &sessionEntry{session: session, lastSeen: st.now()}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(st.ttl / time.Second),
	})
	return session
}

// evictLocked drops expired sessions, then the least recently seen ones
// until a new session fits.
func (st *sessionStore) evictLocked() {
	now := st.now()
	for id, entry := range st.sessions {
		if now.Sub(entry.lastSeen) > st.ttl && !entry.session.Busy() {
			delete(st.sessions, id)
		}
	}

	for len(st.sessions) >= st.max {
		oldestID := ""
		var oldest time.Time
		for id, entry := range st.sessions {
			if entry.session.Busy() {
				continue
			}
			if oldestID == "" || entry.lastSeen.Before(oldest) {
				oldestID, oldest = id, entry.lastSeen
			}
		}
		if oldestID == "" {
			return
		}
		delete(st.sessions, oldestID)
	}
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
