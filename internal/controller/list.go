package controller

import (
	"context"
	"sync"
	"sync/atomic"

	"job-tracker/internal/domain/job"
	"job-tracker/internal/reactive"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/views"
)

// List presents the list scope through a filter/sort/paginate projection.
// The current page is clamped to the available pages after every
// recompute.
type List struct {
	cache   *recordcache.Cache
	release func()
	closed  atomic.Bool

	mu    sync.Mutex
	state *reactive.Signal[views.ViewState]
	page  *reactive.Memo[views.PagedResult]
}

func NewList(cache *recordcache.Cache) *List {
	l := &List{
		cache:   cache,
		release: cache.Acquire(recordcache.ScopeList),
		state:   reactive.NewSignal(views.DefaultViewState()),
	}
	records := cache.Records()
	l.page = reactive.NewMemo(func() views.PagedResult {
		return views.Project(records.Get(), l.state.Get())
	}, records, l.state)
	return l
}

func (l *List) Load(ctx context.Context, force bool) error {
	if l.closed.Load() {
		return ErrClosed
	}
	err := l.cache.Load(ctx, recordcache.ScopeList, force)
	if l.closed.Load() {
		return ErrClosed
	}
	return err
}

func (l *List) State() views.ViewState {
	return l.state.Get()
}

// Result is the current page of the projection.
func (l *List) Result() views.PagedResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resultLocked()
}

func (l *List) resultLocked() views.PagedResult {
	res := l.page.Get()
	st := l.state.Get()
	if p := views.ClampPage(st.CurrentPage, res.TotalPages); p != st.CurrentPage {
		st.CurrentPage = p
		l.state.Set(st)
		res = l.page.Get()
	}
	return res
}

// Show replaces the whole view state and returns the resulting page, as
// one step.
func (l *List) Show(state views.ViewState) (views.ViewState, views.PagedResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Set(state)
	res := l.resultLocked()
	return l.state.Get(), res
}

func (l *List) update(fn func(views.ViewState) views.ViewState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Update(fn)
	l.resultLocked()
}

// SetSearch changes the query and returns to the first page.
func (l *List) SetSearch(query string) {
	l.update(func(s views.ViewState) views.ViewState {
		s.SearchQuery = query
		s.CurrentPage = 1
		return s
	})
}

func (l *List) SetStatusFilter(status string) {
	l.update(func(s views.ViewState) views.ViewState {
		s.StatusFilter = status
		s.CurrentPage = 1
		return s
	})
}

func (l *List) ToggleSort(field views.SortField) {
	l.update(func(s views.ViewState) views.ViewState {
		return views.ToggleSort(s, field)
	})
}

func (l *List) SetPage(page int) {
	l.update(func(s views.ViewState) views.ViewState {
		s.CurrentPage = page
		return s
	})
}

func (l *List) NextPage() {
	l.update(func(s views.ViewState) views.ViewState {
		s.CurrentPage++
		return s
	})
}

func (l *List) PrevPage() {
	l.update(func(s views.ViewState) views.ViewState {
		if s.CurrentPage > 1 {
			s.CurrentPage--
		}
		return s
	})
}

// Reset restores the state a freshly mounted list starts with.
func (l *List) Reset() {
	l.update(func(views.ViewState) views.ViewState {
		return views.DefaultViewState()
	})
}

// Records is every cached record, unfiltered.
func (l *List) Records() []job.Record {
	return job.CloneRecords(l.cache.Records().Get())
}

func (l *List) Create(ctx context.Context, r job.Record) (job.Record, error) {
	return l.mutate(ctx, recordcache.Mutation{Op: recordcache.OpAdd, Record: r})
}

func (l *List) Update(ctx context.Context, r job.Record) (job.Record, error) {
	return l.mutate(ctx, recordcache.Mutation{Op: recordcache.OpUpdate, Record: r})
}

func (l *List) Delete(ctx context.Context, id string) error {
	_, err := l.mutate(ctx, recordcache.Mutation{Op: recordcache.OpDelete, ID: id})
	return err
}

func (l *List) mutate(ctx context.Context, m recordcache.Mutation) (job.Record, error) {
	if l.closed.Load() {
		return job.Record{}, ErrClosed
	}
	return l.cache.Mutate(ctx, m)
}

func (l *List) Close() {
	if l.closed.Swap(true) {
		return
	}
	l.release()
}

func (l *List) Closed() bool {
	return l.closed.Load()
}
