package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Status represents the lifecycle state of an order inside the production workflow.
type Status string

const (
	StatusDraft                    Status = "draft"
	StatusReadyForProduction       Status = "ready_for_production"
	StatusProductionInProgress     Status = "production_in_progress"
	StatusReadyForSoftwareReview   Status = "ready_for_software_review"
	StatusSoftwareReviewInProgress Status = "software_review_in_progress"
	StatusCompleted                Status = "completed"
	StatusOnHold                   Status = "on_hold"
	StatusRejected                 Status = "rejected"
	StatusCancelled                Status = "cancelled"
)

// ErrInvalidStatus is returned when a raw value does not name a known status.
var ErrInvalidStatus = errors.New("order status is invalid")

// AllStatuses lists every status in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusReadyForProduction,
		StatusProductionInProgress,
		StatusReadyForSoftwareReview,
		StatusSoftwareReviewInProgress,
		StatusCompleted,
		StatusOnHold,
		StatusRejected,
		StatusCancelled,
	}
}

// ParseStatus converts a transport value into a Status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Valid reports whether the status is one of the defined states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReadyForProduction, StatusProductionInProgress,
		StatusReadyForSoftwareReview, StatusSoftwareReviewInProgress,
		StatusCompleted, StatusOnHold, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// Closed reports whether the order no longer accepts edits.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ContentLocked reports whether line items can no longer change.
func (s Status) ContentLocked() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusReadyForSoftwareReview, StatusSoftwareReviewInProgress:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
