package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jakopako/flowcheck/internal/log"
)

// Manager creates sessions with a fixed configuration and guarantees that
// every session it hands out can be released exactly once.
type Manager struct {
	cfg       Config
	newDriver Factory

	mu       sync.Mutex
	live     map[string]*Session
	created  int
	released int
}

// NewManager returns a manager creating sessions of the driver type
// configured in cfg.
func NewManager(cfg Config) (*Manager, error) {
	f, err := NewFactory(cfg.Type)
	if err != nil {
		return nil, err
	}
	return NewManagerWithFactory(cfg, f), nil
}

// NewManagerWithFactory returns a manager creating its drivers with f.
func NewManagerWithFactory(cfg Config, f Factory) *Manager {
	return &Manager{
		cfg:       cfg,
		newDriver: f,
		live:      map[string]*Session{},
	}
}

func (m *Manager) Config() Config {
	return m.cfg
}

// Acquire creates a new session. If the automation endpoint cannot be
// started or reached the error is a *SessionCreationError.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	logger := log.LoggerFromContext(ctx)
	d, err := m.newDriver(ctx, m.cfg)
	if err != nil {
		return nil, &SessionCreationError{Type: m.cfg.Type, Err: err}
	}
	s := NewSession(d, m.cfg)
	m.mu.Lock()
	m.live[s.ID] = s
	m.created++
	m.mu.Unlock()
	logger.Debug("acquired session", slog.String("session", s.ID[:8]), slog.String("driver", string(m.cfg.Type)))
	return s, nil
}

// Release closes the session. Releasing an already released session is a
// no-op, other sessions are never affected.
func (m *Manager) Release(s *Session) error {
	if s == nil {
		return nil
	}
	err := s.close()
	m.mu.Lock()
	if _, ok := m.live[s.ID]; ok {
		delete(m.live, s.ID)
		m.released++
	}
	m.mu.Unlock()
	return err
}

// With acquires a session, runs fn with it and releases the session on
// every exit path of fn, panics included.
func (m *Manager) With(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := m.Release(s); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(s.Context(ctx), s)
}

// Live returns the number of sessions acquired but not yet released.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Stats returns the number of sessions created and released so far.
func (m *Manager) Stats() (created, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.released
}

// Close releases all live sessions.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.live))
	for _, s := range m.live {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	var errs []error
	for _, s := range sessions {
		errs = append(errs, m.Release(s))
	}
	return errors.Join(errs...)
}
