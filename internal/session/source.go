package session

import (
	"context"
	"sync"
	"sync/atomic"

	"job-tracker/internal/domain/job"
	"job-tracker/internal/pkg/apperr"
	"job-tracker/internal/recordcache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SourceFactory builds the remote store client for one user, authorised
// with the bearer token of the current request.
type SourceFactory func(userID uuid.UUID, token string) recordcache.Source

// Snapshots mirrors the last confirmed payloads of each user.
type Snapshots interface {
	SaveRecords(ctx context.Context, userID string, recs []job.Record) error
	Records(ctx context.Context, userID string) ([]job.Record, bool, error)
	SaveDashboard(ctx context.Context, userID string, d job.Dashboard) error
	Dashboard(ctx context.Context, userID string) (job.Dashboard, bool, error)
	Forget(ctx context.Context, userID string) error
}

// Notifier announces confirmed mutations to other instances.
type Notifier interface {
	Publish(ctx context.Context, userID, op string) error
}

// mirroredSource sits between a session cache and the remote store. Good
// reads are mirrored to the snapshot store; a transient read failure is
// answered from the mirror when one exists, and the scope is flagged so
// the next load forces a refetch.
type mirroredSource struct {
	factory   SourceFactory
	userID    uuid.UUID
	token     atomic.Value
	snapshots Snapshots
	notifier  Notifier
	logger    *zap.Logger

	mu    sync.Mutex
	stale map[recordcache.Scope]bool
}

func newMirroredSource(factory SourceFactory, userID uuid.UUID, token string, snaps Snapshots, n Notifier, log *zap.Logger) *mirroredSource {
	m := &mirroredSource{
		factory:   factory,
		userID:    userID,
		snapshots: snaps,
		notifier:  n,
		logger:    log,
		stale:     map[recordcache.Scope]bool{},
	}
	m.token.Store(token)
	return m
}

func (m *mirroredSource) setToken(token string) {
	if token != "" {
		m.token.Store(token)
	}
}

func (m *mirroredSource) upstream() recordcache.Source {
	return m.factory(m.userID, m.token.Load().(string))
}

func (m *mirroredSource) markStale(scope recordcache.Scope, v bool) {
	m.mu.Lock()
	m.stale[scope] = v
	m.mu.Unlock()
}

// takeStale reports and resets the stale flag of scope.
func (m *mirroredSource) takeStale(scope recordcache.Scope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.stale[scope]
	m.stale[scope] = false
	return v
}

func (m *mirroredSource) ListJobs(ctx context.Context) ([]job.Record, error) {
	uid := m.userID.String()
	recs, err := m.upstream().ListJobs(ctx)
	if err == nil {
		m.markStale(recordcache.ScopeList, false)
		if m.snapshots != nil {
			if serr := m.snapshots.SaveRecords(ctx, uid, recs); serr != nil {
				m.logger.Warn("saving list snapshot failed", zap.String("user_id", uid), zap.Error(serr))
			}
		}
		return recs, nil
	}
	if !apperr.Is(err, apperr.TypeUnavailable) || m.snapshots == nil {
		return nil, err
	}
	snap, ok, serr := m.snapshots.Records(ctx, uid)
	if serr != nil || !ok {
		return nil, err
	}
	m.logger.Warn("job api unavailable, serving list snapshot", zap.String("user_id", uid), zap.Error(err))
	m.markStale(recordcache.ScopeList, true)
	return snap, nil
}

func (m *mirroredSource) Dashboard(ctx context.Context) (job.Dashboard, error) {
	uid := m.userID.String()
	d, err := m.upstream().Dashboard(ctx)
	if err == nil {
		m.markStale(recordcache.ScopeDashboard, false)
		if m.snapshots != nil {
			if serr := m.snapshots.SaveDashboard(ctx, uid, d); serr != nil {
				m.logger.Warn("saving dashboard snapshot failed", zap.String("user_id", uid), zap.Error(serr))
			}
		}
		return d, nil
	}
	if !apperr.Is(err, apperr.TypeUnavailable) || m.snapshots == nil {
		return job.Dashboard{}, err
	}
	snap, ok, serr := m.snapshots.Dashboard(ctx, uid)
	if serr != nil || !ok {
		return job.Dashboard{}, err
	}
	m.logger.Warn("job api unavailable, serving dashboard snapshot", zap.String("user_id", uid), zap.Error(err))
	m.markStale(recordcache.ScopeDashboard, true)
	return snap, nil
}

func (m *mirroredSource) CreateJob(ctx context.Context, r job.Record) (job.Record, error) {
	out, err := m.upstream().CreateJob(ctx, r)
	if err == nil {
		m.announce(ctx, recordcache.OpAdd)
	}
	return out, err
}

func (m *mirroredSource) UpdateJob(ctx context.Context, r job.Record) (job.Record, error) {
	out, err := m.upstream().UpdateJob(ctx, r)
	if err == nil {
		m.announce(ctx, recordcache.OpUpdate)
	}
	return out, err
}

func (m *mirroredSource) DeleteJob(ctx context.Context, id string) error {
	err := m.upstream().DeleteJob(ctx, id)
	if err == nil {
		m.announce(ctx, recordcache.OpDelete)
	}
	return err
}

func (m *mirroredSource) announce(ctx context.Context, op recordcache.Op) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, m.userID.String(), string(op)); err != nil {
		m.logger.Warn("publishing change event failed", zap.String("user_id", m.userID.String()), zap.Error(err))
	}
}

var _ recordcache.Source = (*mirroredSource)(nil)
