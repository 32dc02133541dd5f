// Package recordcache holds the client-side copy of job records and
// dashboard aggregates, with per-scope freshness and write-through mutations.
package recordcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"job-tracker/internal/domain/job"
	"job-tracker/internal/reactive"

	"golang.org/x/sync/singleflight"
)

type Scope string

const (
	ScopeList      Scope = "list"
	ScopeDashboard Scope = "dashboard"
	ScopeAll       Scope = "all"
)

func ParseScope(raw string) (Scope, error) {
	switch s := Scope(strings.ToLower(strings.TrimSpace(raw))); s {
	case ScopeList, ScopeDashboard, ScopeAll:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, raw)
	}
}

var (
	ErrFetch           = errors.New("record cache: fetch failed")
	ErrMutation        = errors.New("record cache: mutation failed")
	ErrRefresh         = errors.New("record cache: refresh after mutation failed")
	ErrUnknownScope    = errors.New("record cache: unknown scope")
	ErrInvalidMutation = errors.New("record cache: invalid mutation")
)

// Source is the remote store behind the cache.
type Source interface {
	ListJobs(ctx context.Context) ([]job.Record, error)
	Dashboard(ctx context.Context) (job.Dashboard, error)
	CreateJob(ctx context.Context, r job.Record) (job.Record, error)
	UpdateJob(ctx context.Context, r job.Record) (job.Record, error)
	DeleteJob(ctx context.Context, id string) error
}

type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Mutation struct {
	Op     Op
	Record job.Record
	ID     string
}

// Cache is safe for concurrent use. Subscribers of Records and Dashboard
// run synchronously inside state changes and must not call Load, Mutate,
// Clear or Invalidate from the callback.
type Cache struct {
	source Source
	flight singleflight.Group

	records   *reactive.Signal[[]job.Record]
	dashboard *reactive.Signal[job.Dashboard]

	mu     sync.Mutex
	loaded map[Scope]bool
	active map[Scope]int
	gen    uint64

	mutateMu sync.Mutex
}

func New(source Source) *Cache {
	return &Cache{
		source:    source,
		records:   reactive.NewSignal([]job.Record{}),
		dashboard: reactive.NewSignal(job.Dashboard{}),
		loaded:    map[Scope]bool{ScopeList: false, ScopeDashboard: false},
		active:    map[Scope]int{},
	}
}

// Records is the record set. Values read from it must not be modified.
func (c *Cache) Records() reactive.Readable[[]job.Record] { return c.records }

// Dashboard is the last loaded dashboard payload.
func (c *Cache) Dashboard() reactive.Readable[job.Dashboard] { return c.dashboard }

type Snapshot struct {
	Records    []job.Record
	Dashboard  job.Dashboard
	Loaded     map[Scope]bool
	Generation uint64
}

func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	loaded := make(map[Scope]bool, len(c.loaded))
	for k, v := range c.loaded {
		loaded[k] = v
	}
	return Snapshot{
		Records:    job.CloneRecords(c.records.Get()),
		Dashboard:  c.dashboard.Get().Clone(),
		Loaded:     loaded,
		Generation: c.gen,
	}
}

func (c *Cache) Loaded(scope Scope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if scope == ScopeAll {
		return c.loaded[ScopeList] && c.loaded[ScopeDashboard]
	}
	return c.loaded[scope]
}

// Acquire marks scope as consumed by a mounted view until release is called.
func (c *Cache) Acquire(scope Scope) (release func()) {
	scopes := expand(scope)
	c.mu.Lock()
	for _, s := range scopes {
		c.active[s]++
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			for _, s := range scopes {
				if c.active[s] > 0 {
					c.active[s]--
				}
			}
			c.mu.Unlock()
		})
	}
}

// Load fetches scope unless it is already loaded and force is false.
// A failed load leaves the cached state untouched.
func (c *Cache) Load(ctx context.Context, scope Scope, force bool) error {
	if scope == ScopeAll {
		return errors.Join(
			c.Load(ctx, ScopeList, force),
			c.Load(ctx, ScopeDashboard, force),
		)
	}
	if scope != ScopeList && scope != ScopeDashboard {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	c.mu.Lock()
	if c.loaded[scope] && !force {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	return c.fetch(ctx, scope, gen)
}

// fetch shares one in-flight request per scope and generation. The result
// is applied only if no Clear, Invalidate or mutation happened meanwhile.
func (c *Cache) fetch(ctx context.Context, scope Scope, gen uint64) error {
	key := fmt.Sprintf("%s@%d", scope, gen)
	_, err, _ := c.flight.Do(key, func() (any, error) {
		switch scope {
		case ScopeList:
			recs, err := c.source.ListJobs(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: list: %w", ErrFetch, err)
			}
			c.applyRecords(gen, recs)
		case ScopeDashboard:
			d, err := c.source.Dashboard(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: dashboard: %w", ErrFetch, err)
			}
			c.applyDashboard(gen, d)
		}
		return nil, nil
	})
	return err
}

func (c *Cache) applyRecords(gen uint64, recs []job.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	if recs == nil {
		recs = []job.Record{}
	}
	c.records.Set(job.CloneRecords(recs))
	c.loaded[ScopeList] = true
}

func (c *Cache) applyDashboard(gen uint64, d job.Dashboard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.dashboard.Set(d.Clone())
	c.loaded[ScopeDashboard] = true
}

// Mutate writes through to the source. Local state changes only after the
// source confirms; the refresh that follows is sequenced after the
// confirmation. A failed refresh is reported with ErrRefresh while the
// write itself stands.
func (c *Cache) Mutate(ctx context.Context, m Mutation) (job.Record, error) {
	c.mutateMu.Lock()
	defer c.mutateMu.Unlock()

	confirmed, err := c.write(ctx, m)
	if err != nil {
		return job.Record{}, err
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loaded[ScopeList] = false
	c.loaded[ScopeDashboard] = false
	scopes := c.refreshScopesLocked()
	c.mu.Unlock()

	var errs []error
	for _, s := range scopes {
		if err := c.fetch(ctx, s, gen); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return confirmed, fmt.Errorf("%w: %w", ErrRefresh, errors.Join(errs...))
	}
	return confirmed, nil
}

func (c *Cache) write(ctx context.Context, m Mutation) (job.Record, error) {
	switch m.Op {
	case OpAdd:
		r := m.Record
		r.Stage = 0
		r.ApplyStatus(r.Status)
		out, err := c.source.CreateJob(ctx, r)
		if err != nil {
			return job.Record{}, fmt.Errorf("%w: add: %w", ErrMutation, err)
		}
		return out, nil
	case OpUpdate:
		r := m.Record
		if strings.TrimSpace(r.ID) == "" {
			return job.Record{}, fmt.Errorf("%w: update requires an id", ErrInvalidMutation)
		}
		prior, err := c.priorStage(ctx, r)
		if err != nil {
			return job.Record{}, fmt.Errorf("%w: update: %w", ErrMutation, err)
		}
		r.Stage = prior
		r.ApplyStatus(r.Status)
		out, err := c.source.UpdateJob(ctx, r)
		if err != nil {
			return job.Record{}, fmt.Errorf("%w: update: %w", ErrMutation, err)
		}
		return out, nil
	case OpDelete:
		id := strings.TrimSpace(m.ID)
		if id == "" {
			id = strings.TrimSpace(m.Record.ID)
		}
		if id == "" {
			return job.Record{}, fmt.Errorf("%w: delete requires an id", ErrInvalidMutation)
		}
		if err := c.source.DeleteJob(ctx, id); err != nil {
			return job.Record{}, fmt.Errorf("%w: delete: %w", ErrMutation, err)
		}
		return job.Record{ID: id}, nil
	default:
		return job.Record{}, fmt.Errorf("%w: unknown op %q", ErrInvalidMutation, m.Op)
	}
}

// priorStage is the stage the stored record has reached. Only a Rejected
// update depends on it, so only then is a missing or stale list fetched.
func (c *Cache) priorStage(ctx context.Context, r job.Record) (int, error) {
	if r.Status == job.StatusRejected && !c.Loaded(ScopeList) {
		if err := c.Load(ctx, ScopeList, false); err != nil {
			return 0, err
		}
	}
	if prior, ok := c.find(r.ID); ok {
		return prior.Stage, nil
	}
	return r.Stage, nil
}

func (c *Cache) find(id string) (job.Record, bool) {
	for _, r := range c.records.Get() {
		if r.ID == id {
			return r, true
		}
	}
	return job.Record{}, false
}

func (c *Cache) refreshScopesLocked() []Scope {
	var out []Scope
	for _, s := range []Scope{ScopeList, ScopeDashboard} {
		if c.active[s] > 0 {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []Scope{ScopeList, ScopeDashboard}
	}
	return out
}

// Invalidate marks every scope stale and discards in-flight loads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.loaded[ScopeList] = false
	c.loaded[ScopeDashboard] = false
}

// Clear resets records, aggregates and freshness, e.g. on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.loaded[ScopeList] = false
	c.loaded[ScopeDashboard] = false
	c.records.Set([]job.Record{})
	c.dashboard.Set(job.Dashboard{})
}

func expand(scope Scope) []Scope {
	if scope == ScopeAll {
		return []Scope{ScopeList, ScopeDashboard}
	}
	return []Scope{scope}
}
