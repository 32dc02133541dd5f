package views

import (
	"math"
	"testing"

	"job-tracker/internal/domain/chart"
	"job-tracker/internal/domain/job"

	"github.com/stretchr/testify/assert"
)

func TestStatusDistribution_FirstEncounterOrder(t *testing.T) {
	records := []job.Record{
		{Status: job.StatusApplied},
		{Status: job.StatusRejected},
		{Status: job.StatusApplied},
	}
	assert.Equal(t, chart.Series{{Name: "Applied", Value: 2}, {Name: "Rejected", Value: 1}}, StatusDistribution(records))
	assert.Empty(t, StatusDistribution(nil))
}

func TestInterviewProgress(t *testing.T) {
	records := []job.Record{{Stage: 1}, {Stage: 3}, {Stage: 4}}
	assert.Equal(t, chart.Series{{Name: "Interviewed", Value: 2}, {Name: "Not Interviewed", Value: 1}}, InterviewProgress(records))
	assert.Equal(t, chart.Series{{Name: "Interviewed", Value: 0}, {Name: "Not Interviewed", Value: 0}}, InterviewProgress(nil))
}

func TestMonthlyApplications_Chronological(t *testing.T) {
	records := []job.Record{
		rec("b", "x", "r", "l", "2024-03-02", job.StatusOfferReceived),
		rec("a", "x", "r", "l", "2024-01-15", job.StatusApplied),
		rec("c", "x", "r", "l", "2023-12-20", job.StatusApplied),
		rec("d", "x", "r", "l", "2024-01-31", job.StatusApplied),
		{ID: "undated"},
	}
	assert.Equal(t, chart.Series{
		{Name: "Dec 23", Value: 1},
		{Name: "Jan 24", Value: 2},
		{Name: "Mar 24", Value: 1},
	}, MonthlyApplications(records))
}

func TestMonthlyApplications_OffsetDateStaysInItsMonth(t *testing.T) {
	d, err := job.ParseDate("2024-02-01T00:30:00+02:00")
	if !assert.NoError(t, err) {
		return
	}
	got := MonthlyApplications([]job.Record{{Date: d}})
	assert.Equal(t, chart.Series{{Name: "Feb 24", Value: 1}}, got)
}

func TestDashboardFromRecords_EndToEnd(t *testing.T) {
	records := []job.Record{
		rec("1", "Acme", "Dev", "Remote", "2024-01-15", job.StatusApplied),
		rec("2", "Globex", "Dev", "Remote", "2024-03-02", job.StatusOfferReceived),
	}
	d := DashboardFromRecords(records)
	assert.Equal(t, chart.Series{{Name: "Jan 24", Value: 1}, {Name: "Mar 24", Value: 1}}, d.MonthlyChart)
	assert.Equal(t, chart.Series{{Name: "Applied", Value: 1}, {Name: "OfferReceived", Value: 1}}, d.StatusChart)
	assert.Equal(t, 1, d.Stats.Offers)
	assert.Equal(t, 2, d.Stats.TotalApplications)
	assert.Equal(t, 1, d.Stats.ActivePipeline)
	assert.Equal(t, 1, d.Stats.Interviews)
}

func TestRates(t *testing.T) {
	i, o := Rates(job.Stats{TotalApplications: 3, Interviews: 1, Offers: 1})
	assert.Equal(t, 33, i)
	assert.Equal(t, 100, o)

	i, o = Rates(job.Stats{})
	assert.Zero(t, i)
	assert.Zero(t, o)
}

func TestNormalizeDashboard(t *testing.T) {
	in := job.Dashboard{
		Stats:          job.Stats{TotalApplications: -1, Offers: 2},
		StatusChart:    chart.Series{{Name: "Applied", Value: 2}, {Name: "Rejected", Value: 0}, {Name: "Applied", Value: 1}, {Name: "Bad", Value: math.NaN()}},
		MonthlyChart:   chart.Series{{Name: "Jan 24", Value: -3}, {Name: "Feb 24", Value: 4}},
		InterviewChart: chart.Series{{Name: "Interviewed", Value: 5}},
	}
	out := NormalizeDashboard(in)
	assert.Equal(t, 0, out.Stats.TotalApplications)
	assert.Equal(t, 2, out.Stats.Offers)
	assert.Equal(t, chart.Series{{Name: "Applied", Value: 3}}, out.StatusChart)
	assert.Equal(t, chart.Series{{Name: "Feb 24", Value: 4}}, out.MonthlyChart)
	assert.Equal(t, chart.Series{{Name: "Interviewed", Value: 5}, {Name: "Not Interviewed", Value: 0}}, out.InterviewChart)
}
