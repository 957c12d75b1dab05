// Package audit turns the outcome of a privileged mutation into an
// append-only audit entry and persists it off the response path.
package audit

import (
	"net/http"
	"time"

	"gorm.io/datatypes"

	"sheetdesk/internal/models"
)

// Outcome is what an audited handler hands back instead of writing the
// response itself. Err, when set, takes precedence over Status and Body.
type Outcome struct {
	Status int
	Body   any
	Err    error
	// Input is the request payload that produced the outcome. It is copied
	// into the entry details.
	Input map[string]any
}

// OK builds a successful outcome.
func OK(status int, body any, input map[string]any) Outcome {
	return Outcome{Status: status, Body: body, Input: input}
}

// Failed builds an outcome for an error; its status is derived by the caller.
func Failed(err error) Outcome {
	return Outcome{Err: err}
}

// Succeeded reports whether the outcome should be recorded: no error and a
// 2xx status.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Status >= http.StatusOK && o.Status < http.StatusMultipleChoices
}

// Invocation describes who invoked which audited operation against what.
type Invocation struct {
	AdminID    string
	Action     models.AuditAction
	TargetType models.AuditTargetType
	TargetID   string
	IPAddress  string
	UserAgent  string
	At         time.Time
}

// Capture builds the audit entry for an invocation, or reports false when the
// outcome was not a success. It has no side effects.
func Capture(inv Invocation, out Outcome) (*models.AuditLog, bool) {
	if !out.Succeeded() {
		return nil, false
	}

	details := datatypes.JSONMap{}
	for k, v := range out.Input {
		details[k] = v
	}
	details["statusCode"] = out.Status

	at := inv.At
	if at.IsZero() {
		at = time.Now()
	}

	return &models.AuditLog{
		AdminID:    inv.AdminID,
		Action:     inv.Action,
		TargetType: inv.TargetType,
		TargetID:   inv.TargetID,
		Details:    details,
		IPAddress:  inv.IPAddress,
		UserAgent:  inv.UserAgent,
		Timestamp:  at.UTC(),
	}, true
}
