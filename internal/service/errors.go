package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/booking-core/internal/commerce"
	"github.com/Leganyst/booking-core/internal/scheduling"
)

// Code maps a domain error to the gRPC code reported to callers.
func Code(err error) codes.Code {
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	switch {
	case errors.Is(err, scheduling.ErrTenantMismatch):
		return codes.PermissionDenied
	case errors.Is(err, scheduling.ErrNotFound), errors.Is(err, commerce.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, scheduling.ErrConflict):
		return codes.Aborted
	case errors.Is(err, scheduling.ErrOutsideAvailability),
		errors.Is(err, scheduling.ErrHoldExpired),
		errors.Is(err, scheduling.ErrInvalidState),
		errors.Is(err, scheduling.ErrResourceInactive):
		return codes.FailedPrecondition
	case errors.Is(err, scheduling.ErrRuleOverlap),
		errors.Is(err, scheduling.ErrInvalidRule),
		errors.Is(err, scheduling.ErrInvalidInterval),
		errors.Is(err, scheduling.ErrInvalidArgument),
		errors.Is(err, commerce.ErrInvalidLink):
		return codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := Code(err)
	if code == codes.Internal {
		// storage details stay in the server log
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}
