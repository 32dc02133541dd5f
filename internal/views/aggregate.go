package views

import (
	"math"
	"slices"

	"job-tracker/internal/domain/chart"
	"job-tracker/internal/domain/job"
)

const (
	LabelInterviewed    = "Interviewed"
	LabelNotInterviewed = "Not Interviewed"
)

// monthLabel renders a bucket as short month and two-digit year, e.g. "Jan 24".
const monthLabel = "Jan 06"

// StatusDistribution counts records per status in order of first encounter.
func StatusDistribution(records []job.Record) chart.Series {
	index := make(map[job.Status]int)
	out := chart.Series{}
	for _, r := range records {
		if i, ok := index[r.Status]; ok {
			out[i].Value++
			continue
		}
		index[r.Status] = len(out)
		out = append(out, chart.Point{Name: string(r.Status), Value: 1})
	}
	return out
}

// MonthlyApplications counts records per calendar month in chronological
// order. Records without a date are not bucketed.
func MonthlyApplications(records []job.Record) chart.Series {
	sorted := job.CloneRecords(records)
	slices.SortStableFunc(sorted, func(a, b job.Record) int {
		return a.Date.Compare(b.Date.Time)
	})

	index := make(map[string]int)
	out := chart.Series{}
	for _, r := range sorted {
		if r.Date.IsZero() {
			continue
		}
		key := r.Date.UTC().Format(monthLabel)
		if i, ok := index[key]; ok {
			out[i].Value++
			continue
		}
		index[key] = len(out)
		out = append(out, chart.Point{Name: key, Value: 1})
	}
	return out
}

// InterviewProgress always returns exactly two points.
func InterviewProgress(records []job.Record) chart.Series {
	interviewed := 0
	for _, r := range records {
		if r.Stage >= 3 {
			interviewed++
		}
	}
	return chart.Series{
		{Name: LabelInterviewed, Value: float64(interviewed)},
		{Name: LabelNotInterviewed, Value: float64(len(records) - interviewed)},
	}
}

// StatsFromRecords derives the dashboard counters from raw records.
func StatsFromRecords(records []job.Record) job.Stats {
	st := job.Stats{TotalApplications: len(records)}
	for _, r := range records {
		if r.StageStatus == job.StageActive {
			st.ActivePipeline++
		}
		if r.Stage >= 3 {
			st.Interviews++
		}
		if r.Status == job.StatusOfferReceived {
			st.Offers++
		}
	}
	return st
}

// DashboardFromRecords computes the full dashboard payload client-side.
func DashboardFromRecords(records []job.Record) job.Dashboard {
	return job.Dashboard{
		Stats:          StatsFromRecords(records),
		StatusChart:    StatusDistribution(records),
		MonthlyChart:   MonthlyApplications(records),
		InterviewChart: InterviewProgress(records),
	}
}

// Rates returns the interview rate (interviews over applications) and the
// offer rate (offers over interviews) as rounded percentages.
func Rates(st job.Stats) (interviewRate, offerRate int) {
	if st.TotalApplications > 0 {
		interviewRate = int(math.Round(float64(st.Interviews) / float64(st.TotalApplications) * 100))
	}
	if st.Interviews > 0 {
		offerRate = int(math.Round(float64(st.Offers) / float64(st.Interviews) * 100))
	}
	return interviewRate, offerRate
}

// NormalizeDashboard makes a server pre-aggregated payload obey the same
// rules as the client-side aggregates: unusable values become zero, empty
// buckets are omitted, names are unique, and interview progress has two points.
func NormalizeDashboard(d job.Dashboard) job.Dashboard {
	return job.Dashboard{
		Stats:          clampStats(d.Stats),
		StatusChart:    compactBuckets(d.StatusChart),
		MonthlyChart:   compactBuckets(d.MonthlyChart),
		InterviewChart: normalizeInterview(d.InterviewChart),
	}
}

func compactBuckets(in chart.Series) chart.Series {
	index := make(map[string]int)
	out := chart.Series{}
	for _, p := range in {
		v := p.SafeValue()
		if v == 0 {
			continue
		}
		if i, ok := index[p.Name]; ok {
			out[i].Value += v
			continue
		}
		index[p.Name] = len(out)
		out = append(out, chart.Point{Name: p.Name, Value: v})
	}
	return out
}

func normalizeInterview(in chart.Series) chart.Series {
	var yes, no float64
	for _, p := range in {
		switch p.Name {
		case LabelInterviewed:
			yes += p.SafeValue()
		case LabelNotInterviewed:
			no += p.SafeValue()
		}
	}
	return chart.Series{
		{Name: LabelInterviewed, Value: yes},
		{Name: LabelNotInterviewed, Value: no},
	}
}

func clampStats(st job.Stats) job.Stats {
	return job.Stats{
		TotalApplications: max(st.TotalApplications, 0),
		ActivePipeline:    max(st.ActivePipeline, 0),
		Interviews:        max(st.Interviews, 0),
		Offers:            max(st.Offers, 0),
	}
}
