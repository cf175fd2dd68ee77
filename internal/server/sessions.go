package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/school-finder/internal/dataset"
	"github.com/jonathan/school-finder/internal/session"
)

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 30 * time.Minute

type storeOptions struct {
	LoadTimeout time.Duration // zero means no bound
	IdleTTL     time.Duration // zero keeps sessions until deleted
	// SweepInterval defaults to a quarter of IdleTTL.
	SweepInterval time.Duration
}

type storedSession struct {
	controller *session.Controller
	lastSeen   time.Time
}

// sessionStore keeps one controller per browser tab. Sessions are in memory
// only. They end on DELETE, after IdleTTL without a request, or on shutdown.
type sessionStore struct {
	loader  dataset.Loader
	advisor session.Advisor
	logger  *zap.Logger
	opts    storeOptions

	// baseCtx bounds background loads and the sweeper; it is cancelled on shutdown.
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	sessions map[string]*storedSession

	now func() time.Time
}

func newSessionStore(loader dataset.Loader, advisor session.Advisor, logger *zap.Logger, opts storeOptions) *sessionStore {
	ctx, cancel := context.WithCancel(context.Background())
	st := &sessionStore{
		loader:   loader,
		advisor:  advisor,
		logger:   logger,
		opts:     opts,
		baseCtx:  ctx,
		stop:     cancel,
		sessions: make(map[string]*storedSession),
		now:      time.Now,
	}

	if opts.IdleTTL > 0 {
		interval := opts.SweepInterval
		if interval <= 0 {
			interval = max(opts.IdleTTL/4, time.Second)
		}
		st.wg.Add(1)
		go st.sweep(interval)
	}
	return st
}

// create registers a new session and starts its initial dataset load in the
// background. It fails once the store is closed.
func (st *sessionStore) create() (string, *session.Controller, error) {
	id := uuid.New().String()
	c := session.New(st.loader, st.advisor, st.logger.With(zap.String("session_id", id)))

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		c.Close()
		return "", nil, &ErrShuttingDown{}
	}
	st.sessions[id] = &storedSession{controller: c, lastSeen: st.now()}
	st.wg.Add(1)
	st.mu.Unlock()

	go func() {
		defer st.wg.Done()
		ctx, cancel := st.loadContext(st.baseCtx)
		defer cancel()
		_ = c.Load(ctx) // failure is kept in the controller state
	}()

	return id, c, nil
}

// loadContext derives a context for one dataset load.
func (st *sessionStore) loadContext(parent context.Context) (context.Context, context.CancelFunc) {
	if st.opts.LoadTimeout > 0 {
		return context.WithTimeout(parent, st.opts.LoadTimeout)
	}
	return context.WithCancel(parent)
}

// get returns the session and marks it as active.
func (st *sessionStore) get(id string) (*session.Controller, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, &ErrSessionNotFound{ID: id}
	}
	s.lastSeen = st.now()
	return s.controller, nil
}

func (st *sessionStore) remove(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return &ErrSessionNotFound{ID: id}
	}
	s.controller.Close()
	return nil
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) sweep(interval time.Duration) {
	defer st.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.evictIdle()
		case <-st.baseCtx.Done():
			return
		}
	}
}

// evictIdle closes sessions not touched within IdleTTL and returns how many
// were removed.
func (st *sessionStore) evictIdle() int {
	if st.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.opts.IdleTTL)

	var expired []*session.Controller
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s.controller)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		st.logger.Debug("evicted idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// close cancels background work, closes every session and waits for the
// load and sweep goroutines to exit. Later calls are no-ops.
func (st *sessionStore) close() {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	st.closed = true
	sessions := st.sessions
	st.sessions = make(map[string]*storedSession)
	st.mu.Unlock()

	st.stop()
	for _, s := range sessions {
		s.controller.Close()
	}
	st.wg.Wait()
}
