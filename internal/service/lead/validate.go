// internal/service/lead/validate.go
package lead

import (
	"regexp"
	"strings"

	"crm-service/internal/domain/lead"
	xerrors "crm-service/internal/pkg/errors"
)

// emailPattern matches the address syntax the legacy system accepted.
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

const (
	maxNameLen    = 100
	maxPhoneLen   = 20
	maxCompanyLen = 100
	maxMessageLen = 1000
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateLead enforces the creation/update constraints. The entity is
// expected to already be trimmed and email-normalized.
func validateLead(l *lead.Lead) error {
	ve := &xerrors.ValidationError{}

	if l.Name == "" {
		ve.Add("name", "name is required")
	} else if len(l.Name) > maxNameLen {
		ve.Add("name", "name cannot be more than 100 characters")
	}

	if l.Email == "" {
		ve.Add("email", "email is required")
	} else if !emailPattern.MatchString(l.Email) {
		ve.Add("email", "please provide a valid email")
	}

	if len(l.Phone) > maxPhoneLen {
		ve.Add("phone", "phone number cannot be more than 20 characters")
	}

	if len(l.Company) > maxCompanyLen {
		ve.Add("company", "company name cannot be more than 100 characters")
	}

	if len(l.Message) > maxMessageLen {
		ve.Add("message", "message cannot be more than 1000 characters")
	}

	if l.Value < 0 {
		ve.Add("value", "value cannot be negative")
	}

	if !l.Source.Valid() {
		ve.Add("source", "invalid source")
	}

	if !l.Status.Valid() {
		ve.Add("status", "invalid status")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
