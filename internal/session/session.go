// Package session keeps one record cache and its view controllers per
// signed-in user.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"job-tracker/internal/controller"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/telemetry"
	"job-tracker/internal/viz"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var tracer = telemetry.Tracer("job-tracker/session")

const reloadTimeout = 10 * time.Second

type Session struct {
	UserID    uuid.UUID
	Cache     *recordcache.Cache
	List      *controller.List
	Dashboard *controller.Dashboard

	src *mirroredSource

	mu       sync.Mutex
	lastSeen time.Time
}

// LoadList loads the list scope, forcing a refetch when the previous load
// was answered from a snapshot.
func (s *Session) LoadList(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session.LoadList")
	defer span.End()
	span.SetAttributes(telemetry.String("user.id", s.UserID.String()))

	err := s.List.Load(ctx, s.src.takeStale(recordcache.ScopeList))
	telemetry.Fail(span, err)
	return err
}

func (s *Session) LoadDashboard(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session.LoadDashboard")
	defer span.End()
	span.SetAttributes(telemetry.String("user.id", s.UserID.String()))

	err := s.Dashboard.Load(ctx, s.src.takeStale(recordcache.ScopeDashboard))
	telemetry.Fail(span, err)
	return err
}

// Mounted reports whether any open chart surface is attached.
func (s *Session) Mounted() bool {
	for _, name := range controller.ChartNames {
		if sf, ok := s.Dashboard.Surface(name); ok && !sf.Closed() {
			return true
		}
	}
	return false
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.List.Close()
	s.Dashboard.Close()
	s.Cache.Clear()
}

type Manager struct {
	factory   SourceFactory
	snapshots Snapshots
	notifier  Notifier
	theme     viz.Style
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager builds a manager. snapshots and notifier may be nil.
func NewManager(factory SourceFactory, snapshots Snapshots, notifier Notifier, theme viz.Style, log *zap.Logger) *Manager {
	return &Manager{
		factory:   factory,
		snapshots: snapshots,
		notifier:  notifier,
		theme:     theme,
		logger:    logger.OrNop(log),
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Get returns the user's session, creating it on first use. The token
// replaces the one used for later remote calls.
func (m *Manager) Get(userID uuid.UUID, token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.src.setToken(token)
		s.touch(m.now())
		return s
	}

	src := newMirroredSource(m.factory, userID, token, m.snapshots, m.notifier, m.logger)
	cache := recordcache.New(src)
	s := &Session{
		UserID:    userID,
		Cache:     cache,
		List:      controller.NewList(cache),
		Dashboard: controller.NewDashboard(cache, m.theme),
		src:       src,
	}
	s.touch(m.now())
	m.sessions[userID] = s
	m.logger.Debug("session created", zap.String("user_id", userID.String()))
	return s
}

func (m *Manager) Lookup(userID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Logout clears the user's cache before returning and forgets the
// mirrored snapshots. A failure to reach the snapshot store is logged only;
// the snapshots expire on their own.
func (m *Manager) Logout(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	if m.snapshots == nil {
		return nil
	}
	if err := m.snapshots.Forget(ctx, userID.String()); err != nil {
		m.logger.Warn("forgetting snapshots failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return nil
}

// Invalidate marks the user's cache stale after a change made elsewhere.
// Mounted charts are reloaded in the background.
func (m *Manager) Invalidate(rawUserID string) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return
	}
	s, ok := m.Lookup(userID)
	if !ok {
		return
	}
	s.Cache.Invalidate()
	if !s.Mounted() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := s.Dashboard.Load(ctx, true); err != nil && !errors.Is(err, controller.ErrClosed) {
			m.logger.Warn("dashboard reload failed", zap.String("user_id", rawUserID), zap.Error(err))
		}
	}()
}

// Sweep drops sessions idle for longer than idle without mounted charts.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) && !s.Mounted() {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	return len(expired)
}

func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}
