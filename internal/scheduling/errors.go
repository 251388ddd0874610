package scheduling

import (
	"errors"
	"fmt"

	"github.com/Leganyst/booking-core/internal/availability"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/tenant"
)

// Every outcome below is recoverable and reported to the caller; none of
// them indicates a fault in the service.
var (
	ErrTenantMismatch      = tenant.ErrTenantMismatch
	ErrRuleOverlap         = availability.ErrRuleOverlap
	ErrOutsideAvailability = availability.ErrOutsideAvailability
	ErrInvalidRule         = availability.ErrInvalidRule

	ErrConflict         = errors.New("booking conflict")
	ErrHoldExpired      = errors.New("hold expired")
	ErrInvalidState     = errors.New("invalid booking state")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInterval  = errors.New("invalid interval")
	ErrResourceInactive = errors.New("resource inactive")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// normalizeError folds lower-layer sentinels into this package's set.
func normalizeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrOverlap):
		return ErrConflict
	case repository.IsRetryable(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, tenant.ErrEntityNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return err
}

// IsBenign reports outcomes expected under normal concurrency, which are
// logged at info level.
func IsBenign(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrHoldExpired) ||
		errors.Is(err, ErrOutsideAvailability) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTenantMismatch) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrResourceInactive) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrRuleOverlap) ||
		errors.Is(err, ErrInvalidRule)
}

// Outcome is the metric label for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrHoldExpired):
		return "hold_expired"
	case errors.Is(err, ErrOutsideAvailability):
		return "outside_availability"
	case errors.Is(err, ErrTenantMismatch):
		return "tenant_mismatch"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRuleOverlap):
		return "rule_overlap"
	case errors.Is(err, ErrInvalidInterval), errors.Is(err, ErrInvalidRule), errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrResourceInactive):
		return "resource_inactive"
	default:
		return "error"
	}
}
