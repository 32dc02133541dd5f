package job

import (
	"encoding/json"
	"strings"
	"time"

	"job-tracker/internal/domain/chart"
)

type Status string

const (
	StatusApplied            Status = "Applied"
	StatusShortlisted        Status = "Shortlisted"
	StatusInterviewScheduled Status = "InterviewScheduled"
	StatusOfferReceived      Status = "OfferReceived"
	StatusRejected           Status = "Rejected"
)

// Statuses lists every pipeline status in pipeline order.
var Statuses = []Status{
	StatusApplied,
	StatusShortlisted,
	StatusInterviewScheduled,
	StatusOfferReceived,
	StatusRejected,
}

var statusLabels = map[Status]string{
	StatusApplied:            "Applied",
	StatusShortlisted:        "Shortlisted",
	StatusInterviewScheduled: "Interview Scheduled",
	StatusOfferReceived:      "Offer Received",
	StatusRejected:           "Rejected",
}

// ParseStatus accepts canonical names and the spaced display names, case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	for _, s := range Statuses {
		if strings.ToLower(string(s)) == key {
			return s, true
		}
	}
	return "", false
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable form used by the list view.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// UnmarshalText normalizes known spellings; unknown values are kept verbatim.
func (s *Status) UnmarshalText(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if parsed, ok := ParseStatus(raw); ok {
		*s = parsed
		return nil
	}
	*s = Status(raw)
	return nil
}

type StageStatus string

const (
	StageActive StageStatus = "active"
	StagePassed StageStatus = "passed"
	StageFailed StageStatus = "failed"
)

const dateLayout = "2006-01-02"

// Date is a calendar date. It decodes date-only and RFC3339 strings,
// keeping the day as written, and encodes as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, err
	}
	// the calendar day as written, whatever the offset
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Record is one tracked job application.
type Record struct {
	ID          string      `json:"id"`
	Company     string      `json:"company"`
	Role        string      `json:"role"`
	Location    string      `json:"location"`
	Date        Date        `json:"date"`
	Status      Status      `json:"status"`
	Stage       int         `json:"stage"`
	StageStatus StageStatus `json:"stageStatus"`
	SalaryMin   float64     `json:"salaryMin"`
	SalaryMax   float64     `json:"salaryMax"`
	URL         string      `json:"url,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// Stats are the dashboard counters. They are derived, never edited.
type Stats struct {
	TotalApplications int `json:"totalApplications"`
	ActivePipeline    int `json:"activePipeline"`
	Interviews        int `json:"interviews"`
	Offers            int `json:"offers"`
}

// Dashboard is the dashboard endpoint payload.
type Dashboard struct {
	Stats          Stats        `json:"stats"`
	StatusChart    chart.Series `json:"statusChart"`
	MonthlyChart   chart.Series `json:"monthlyChart"`
	InterviewChart chart.Series `json:"interviewChart"`
}

func (d Dashboard) Clone() Dashboard {
	return Dashboard{
		Stats:          d.Stats,
		StatusChart:    d.StatusChart.Clone(),
		MonthlyChart:   d.MonthlyChart.Clone(),
		InterviewChart: d.InterviewChart.Clone(),
	}
}

func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	copy(out, in)
	return out
}
