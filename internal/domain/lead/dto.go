// internal/domain/lead/dto.go
package lead

import "time"

type CreateLeadRequest struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Company      string     `json:"company"`
	Message      string     `json:"message"`
	Value        *float64   `json:"value"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	FollowUpDate *time.Time `json:"follow_up_date"`
	AssignedTo   *string    `json:"assigned_to"`
}

// UpdateLeadRequest is a merge update: nil fields are left untouched.
type UpdateLeadRequest struct {
	Name         *string    `json:"name"`
	Email        *string    `json:"email"`
	Phone        *string    `json:"phone"`
	Company      *string    `json:"company"`
	Message      *string    `json:"message"`
	Value        *float64   `json:"value"`
	Source       *string    `json:"source"`
	Status       *string    `json:"status"`
	FollowUpDate *time.Time `json:"follow_up_date"`
	AssignedTo   *string    `json:"assigned_to"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AddNoteRequest struct {
	Content string `json:"content"`
}

// ListQuery is the structured filter built once at the request boundary and
// passed into the query path as a value. Status and Source are deliberately
// not checked against the enumerations here: an unrecognized value is passed
// through as an exact-match filter and simply matches zero rows.
type ListQuery struct {
	Page      int
	Limit     int
	Status    string
	Source    string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string
	SortOrder string
}

// Normalized returns a copy with defaults applied.
func (q ListQuery) Normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	return q
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
}

type ListResponse struct {
	Leads      []Lead     `json:"leads"`
	Pagination Pagination `json:"pagination"`
}
