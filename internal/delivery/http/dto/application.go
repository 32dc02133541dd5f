package dto

import (
	"job-tracker/internal/domain/job"
	"job-tracker/internal/views"
)

// ApplicationRequest is the body of create and update calls. Stage is
// derived from Status and cannot be set directly.
type ApplicationRequest struct {
	Company   string     `json:"company"`
	Role      string     `json:"role"`
	Location  string     `json:"location"`
	Date      job.Date   `json:"date"`
	Status    job.Status `json:"status"`
	SalaryMin float64    `json:"salaryMin"`
	SalaryMax float64    `json:"salaryMax"`
	URL       string     `json:"url"`
	Notes     string     `json:"notes"`
}

func (r ApplicationRequest) Record(id string) job.Record {
	return job.Record{
		ID:        id,
		Company:   r.Company,
		Role:      r.Role,
		Location:  r.Location,
		Date:      r.Date,
		Status:    r.Status,
		SalaryMin: r.SalaryMin,
		SalaryMax: r.SalaryMax,
		URL:       r.URL,
		Notes:     r.Notes,
	}
}

type ApplicationResponse struct {
	job.Record
	StatusLabel string `json:"statusLabel"`
}

func NewApplicationResponse(r job.Record) ApplicationResponse {
	return ApplicationResponse{Record: r, StatusLabel: r.Status.Label()}
}

type ViewStateResponse struct {
	Search    string `json:"q"`
	Status    string `json:"status"`
	Sort      string `json:"sort"`
	Direction string `json:"dir"`
	Page      int    `json:"page"`
}

type ApplicationListResponse struct {
	Items         []ApplicationResponse `json:"items"`
	TotalFiltered int                   `json:"totalFiltered"`
	TotalPages    int                   `json:"totalPages"`
	PageSize      int                   `json:"pageSize"`
	State         ViewStateResponse     `json:"state"`
}

func NewApplicationListResponse(st views.ViewState, res views.PagedResult) ApplicationListResponse {
	items := make([]ApplicationResponse, 0, len(res.Items))
	for _, r := range res.Items {
		items = append(items, NewApplicationResponse(r))
	}
	return ApplicationListResponse{
		Items:         items,
		TotalFiltered: res.TotalFiltered,
		TotalPages:    res.TotalPages,
		PageSize:      views.PageSize,
		State: ViewStateResponse{
			Search:    st.SearchQuery,
			Status:    st.StatusFilter,
			Sort:      string(st.SortField),
			Direction: string(st.SortDirection),
			Page:      st.CurrentPage,
		},
	}
}
