// Package views derives list projections and chart aggregates from the
// record set. Every function here is pure: inputs are never mutated.
package views

import (
	"cmp"
	"slices"
	"strings"

	"job-tracker/internal/domain/job"

	"golang.org/x/text/cases"
)

type SortField string

const (
	SortCompany  SortField = "company"
	SortRole     SortField = "role"
	SortDate     SortField = "date"
	SortStatus   SortField = "status"
	SortLocation SortField = "location"
)

func ParseSortField(raw string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(raw))); f {
	case SortCompany, SortRole, SortDate, SortStatus, SortLocation:
		return f, true
	default:
		return "", false
	}
}

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

func ParseSortDirection(raw string) (SortDirection, bool) {
	switch d := SortDirection(strings.ToLower(strings.TrimSpace(raw))); d {
	case Asc, Desc:
		return d, true
	default:
		return "", false
	}
}

// StatusAll disables the status filter.
const StatusAll = "All"

// PageSize is the fixed list page size.
const PageSize = 8

// ViewState is the ephemeral state of one list view.
type ViewState struct {
	SearchQuery   string
	StatusFilter  string
	SortField     SortField
	SortDirection SortDirection
	CurrentPage   int
}

// DefaultViewState is the state a list view starts with: newest first.
func DefaultViewState() ViewState {
	return ViewState{
		StatusFilter:  StatusAll,
		SortField:     SortDate,
		SortDirection: Desc,
		CurrentPage:   1,
	}
}

type PagedResult struct {
	Items         []job.Record `json:"items"`
	TotalFiltered int          `json:"totalFiltered"`
	TotalPages    int          `json:"totalPages"`
}

// Project filters, sorts and paginates records. The page is not clamped:
// an out of range page yields no items.
func Project(records []job.Record, state ViewState) PagedResult {
	filtered := Filter(records, state.SearchQuery, state.StatusFilter)
	sorted := Sort(filtered, state.SortField, state.SortDirection)
	items, pages := Paginate(sorted, state.CurrentPage, PageSize)
	return PagedResult{Items: items, TotalFiltered: len(sorted), TotalPages: pages}
}

// Filter keeps records whose company, role or location contains query
// (case-insensitive) and whose status matches statusFilter.
func Filter(records []job.Record, query, statusFilter string) []job.Record {
	folder := cases.Fold()
	q := folder.String(strings.TrimSpace(query))

	var want job.Status
	filterStatus := !isAllStatuses(statusFilter)
	if filterStatus {
		if s, ok := job.ParseStatus(statusFilter); ok {
			want = s
		} else {
			want = job.Status(strings.TrimSpace(statusFilter))
		}
	}

	out := make([]job.Record, 0, len(records))
	for _, r := range records {
		if q != "" &&
			!strings.Contains(folder.String(r.Company), q) &&
			!strings.Contains(folder.String(r.Role), q) &&
			!strings.Contains(folder.String(r.Location), q) {
			continue
		}
		if filterStatus && r.Status != want {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isAllStatuses(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, StatusAll) || strings.EqualFold(s, "All Statuses")
}

// Sort returns a stably sorted copy. Dates compare chronologically and
// strings case-insensitively; ties keep their input order in both directions.
func Sort(records []job.Record, field SortField, dir SortDirection) []job.Record {
	out := job.CloneRecords(records)
	if out == nil {
		out = []job.Record{}
	}
	sign := 1
	if dir == Desc {
		sign = -1
	}

	if field == SortDate {
		slices.SortStableFunc(out, func(a, b job.Record) int {
			return sign * a.Date.Compare(b.Date.Time)
		})
		return out
	}

	folder := cases.Fold()
	keys := make(map[string]string, len(out)*2)
	key := func(s string) string {
		if k, ok := keys[s]; ok {
			return k
		}
		k := folder.String(s)
		keys[s] = k
		return k
	}
	slices.SortStableFunc(out, func(a, b job.Record) int {
		return sign * cmp.Compare(key(stringField(a, field)), key(stringField(b, field)))
	})
	return out
}

func stringField(r job.Record, field SortField) string {
	switch field {
	case SortCompany:
		return r.Company
	case SortRole:
		return r.Role
	case SortStatus:
		return string(r.Status)
	case SortLocation:
		return r.Location
	default:
		return ""
	}
}

// Paginate returns page (1-based) of records and the page count, which is
// at least 1 even for an empty input.
func Paginate(records []job.Record, page, size int) ([]job.Record, int) {
	if size <= 0 {
		size = PageSize
	}
	pages := (len(records) + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		return []job.Record{}, pages
	}
	start := (page - 1) * size
	if start >= len(records) {
		return []job.Record{}, pages
	}
	end := min(start+size, len(records))
	return job.CloneRecords(records[start:end]), pages
}

// ToggleSort flips the direction for the active field, otherwise selects
// field ascending.
func ToggleSort(state ViewState, field SortField) ViewState {
	if state.SortField == field {
		if state.SortDirection == Asc {
			state.SortDirection = Desc
		} else {
			state.SortDirection = Asc
		}
		return state
	}
	state.SortField = field
	state.SortDirection = Asc
	return state
}

// ClampPage bounds page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
