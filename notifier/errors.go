package notifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/imranansari/dev-scripts/deployment"
)

var (
	// ErrNoVerifiedInstallations aborts a run whose component exists on none of the discovered sites
	ErrNoVerifiedInstallations = errors.New("component could not be verified in any forge installation")

	// ErrDeployFailed wraps a failed forge deploy
	ErrDeployFailed = errors.New("forge deploy failed")
)

// DeliveryError is returned when an IN_PROGRESS event could not be delivered to
// every installation. Compensated counts the FAILED events attempted for the
// installations that had already accepted IN_PROGRESS.
type DeliveryError struct {
	State       deployment.State
	FailedSites []string
	Compensated int
	Errs        *multierror.Error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deployment aborted: failed to send %s notifications to %d installation(s): %s: %v",
		e.State, len(e.FailedSites), strings.Join(e.FailedSites, ", "), e.Errs.ErrorOrNil())
}

func (e *DeliveryError) Unwrap() error {
	return e.Errs.ErrorOrNil()
}

// MigrationError reports a web-triggered migration that ran but did not finish
type MigrationError struct {
	Trigger   string
	Status    string
	Pending   int
	Completed int
	Total     int
	Message   string
}

func (e *MigrationError) Error() string {
	msg := fmt.Sprintf("%s migrations did not complete: status %s, completed %d/%d, pending %d",
		e.Trigger, e.Status, e.Completed, e.Total, e.Pending)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// flatFormat renders multierror lists on one line for log fields
func flatFormat(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
