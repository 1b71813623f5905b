// internal/domain/lead/entity.go
package lead

import (
	"time"

	"crm-service/internal/domain/user"
)

// Status is the lead's position in the sales pipeline.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Statuses lists every valid pipeline status.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Source is the acquisition channel a lead originated from.
type Source string

const (
	SourceWebsite       Source = "website"
	SourceReferral      Source = "referral"
	SourceSocialMedia   Source = "social_media"
	SourceAdvertisement Source = "advertisement"
	SourceColdCall      Source = "cold_call"
	SourceEmailCampaign Source = "email_campaign"
	SourceOther         Source = "other"
)

// Sources lists every valid acquisition channel.
var Sources = []Source{
	SourceWebsite, SourceReferral, SourceSocialMedia, SourceAdvertisement,
	SourceColdCall, SourceEmailCampaign, SourceOther,
}

func (s Source) Valid() bool {
	for _, v := range Sources {
		if s == v {
			return true
		}
	}
	return false
}

// Lead is a prospective-customer contact record.
//
// AssignedToID and CreatedByID are weak references into the users table;
// the resolved Ref projections are filled in by the service when assembling
// a response and are never persisted.
type Lead struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Phone        string     `json:"phone,omitempty" db:"phone"`
	Company      string     `json:"company,omitempty" db:"company"`
	Message      string     `json:"message,omitempty" db:"message"`
	Value        float64    `json:"value" db:"value"`
	Source       Source     `json:"source" db:"source"`
	Status       Status     `json:"status" db:"status"`
	FollowUpDate *time.Time `json:"follow_up_date,omitempty" db:"follow_up_date"`

	AssignedToID *string   `json:"-" db:"assigned_to"`
	CreatedByID  *string   `json:"-" db:"created_by"`
	AssignedTo   *user.Ref `json:"assigned_to,omitempty"`
	CreatedBy    *user.Ref `json:"created_by,omitempty"`

	// ConvertedAt is set once, on the first transition into StatusConverted,
	// and never changes afterwards.
	ConvertedAt *time.Time `json:"converted_at,omitempty" db:"converted_at"`

	Notes []Note `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Note is a timestamped annotation owned by its lead. Notes are returned
// newest-first.
type Note struct {
	ID          string    `json:"id" db:"id"`
	Content     string    `json:"content" db:"content"`
	CreatedByID string    `json:"-" db:"created_by"`
	CreatedBy   *user.Ref `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Stats is the whole-collection aggregate view.
type Stats struct {
	Total          int64            `json:"total"`
	RecentLeads    int64            `json:"recent_leads"`
	ConversionRate float64          `json:"conversion_rate"`
	ByStatus       map[Status]int64 `json:"by_status"`
	BySource       map[Source]int64 `json:"by_source"`
}
