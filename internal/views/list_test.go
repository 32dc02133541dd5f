package views

import (
	"fmt"
	"testing"
	"time"

	"job-tracker/internal/domain/job"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, company, role, location, date string, status job.Status) job.Record {
	d, err := job.ParseDate(date)
	if err != nil {
		panic(err)
	}
	r := job.Record{ID: id, Company: company, Role: role, Location: location, Date: d}
	r.ApplyStatus(status)
	return r
}

func ids(records []job.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func sample() []job.Record {
	return []job.Record{
		rec("1", "acme", "Backend Engineer", "Berlin", "2024-10-01", job.StatusApplied),
		rec("2", "Globex", "SRE", "Remote", "2024-02-01", job.StatusRejected),
		rec("3", "Initech", "backend dev", "Austin", "2024-05-15", job.StatusInterviewScheduled),
		rec("4", "ACME", "Data Engineer", "remote", "2024-02-01", job.StatusApplied),
		rec("5", "Umbrella", "Platform", "Paris", "2023-12-31", job.StatusOfferReceived),
	}
}

func TestSort_DateIsChronologicalNotLexical(t *testing.T) {
	in := []job.Record{
		rec("oct", "a", "r", "l", "2024-10-01", job.StatusApplied),
		rec("feb", "a", "r", "l", "2024-02-01", job.StatusApplied),
	}
	out := Sort(in, SortDate, Asc)
	assert.Equal(t, []string{"feb", "oct"}, ids(out))
	assert.Equal(t, []string{"oct", "feb"}, ids(in), "input must not be mutated")
}

func TestSort_CaseInsensitiveAndStable(t *testing.T) {
	out := Sort(sample(), SortCompany, Asc)
	assert.Equal(t, []string{"1", "4", "2", "3", "5"}, ids(out))

	out = Sort(sample(), SortCompany, Desc)
	assert.Equal(t, []string{"5", "3", "2", "1", "4"}, ids(out), "ties keep input order when descending")
}

func TestSort_Idempotent(t *testing.T) {
	for _, f := range []SortField{SortCompany, SortRole, SortDate, SortStatus, SortLocation} {
		for _, d := range []SortDirection{Asc, Desc} {
			once := Sort(sample(), f, d)
			twice := Sort(once, f, d)
			assert.Equal(t, ids(once), ids(twice), "field=%s dir=%s", f, d)
		}
	}
}

func TestFilter_SearchAcrossFields(t *testing.T) {
	assert.Equal(t, []string{"1", "4"}, ids(Filter(sample(), "ACME", StatusAll)))
	assert.Equal(t, []string{"1", "3"}, ids(Filter(sample(), "backend", StatusAll)))
	assert.Equal(t, []string{"2", "4"}, ids(Filter(sample(), "REMOTE", "")))
	assert.Len(t, Filter(sample(), "", StatusAll), 5)
}

func TestFilter_StatusAndIdempotence(t *testing.T) {
	once := Filter(sample(), "e", "Interview Scheduled")
	require.Equal(t, []string{"3"}, ids(once))

	twice := Filter(once, "e", "Interview Scheduled")
	assert.Equal(t, ids(once), ids(twice))

	assert.Equal(t, []string{"1", "4"}, ids(Filter(sample(), "", string(job.StatusApplied))))
	assert.Empty(t, Filter(sample(), "nomatch", StatusAll))
}

func TestPaginate_CoversEveryRecordOnce(t *testing.T) {
	for n := 0; n <= 25; n++ {
		records := make([]job.Record, n)
		for i := range records {
			records[i] = job.Record{ID: fmt.Sprint(i)}
		}
		for size := 1; size <= 9; size++ {
			_, pages := Paginate(records, 1, size)
			var all []string
			for p := 1; p <= pages; p++ {
				items, _ := Paginate(records, p, size)
				all = append(all, ids(items)...)
			}
			assert.Equal(t, ids(records), append([]string{}, all...), "n=%d size=%d", n, size)
		}
	}
}

func TestProject_EmptyInputHasOnePage(t *testing.T) {
	res := Project(nil, DefaultViewState())
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalFiltered)
	assert.Equal(t, 1, res.TotalPages)
}

func TestProject_OutOfRangePageIsEmpty(t *testing.T) {
	st := DefaultViewState()
	st.CurrentPage = 3
	res := Project(sample(), st)
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.TotalFiltered)
	assert.Equal(t, 1, res.TotalPages)
}

func TestProject_DefaultsNewestFirst(t *testing.T) {
	records := make([]job.Record, 0, 10)
	base := job.NewDate(2024, time.January, 1)
	for i := 0; i < 10; i++ {
		records = append(records, job.Record{ID: fmt.Sprint(i), Date: job.Date{Time: base.AddDate(0, 0, i)}})
	}
	res := Project(records, DefaultViewState())
	require.Len(t, res.Items, PageSize)
	assert.Equal(t, "9", res.Items[0].ID)
	assert.Equal(t, 2, res.TotalPages)
}

func TestToggleSort(t *testing.T) {
	st := DefaultViewState()
	st = ToggleSort(st, SortDate)
	assert.Equal(t, Asc, st.SortDirection)
	st = ToggleSort(st, SortCompany)
	assert.Equal(t, SortCompany, st.SortField)
	assert.Equal(t, Asc, st.SortDirection)
	st = ToggleSort(st, SortCompany)
	assert.Equal(t, Desc, st.SortDirection)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 1, ClampPage(2, 0))
	assert.Equal(t, 2, ClampPage(2, 3))
}
