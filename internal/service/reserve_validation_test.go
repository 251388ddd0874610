package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/booking-core/internal/scheduling"
)

func validRequest() scheduling.ReserveRequest {
	return scheduling.ReserveRequest{
		TenantID:   uuid.New(),
		ResourceID: uuid.New(),
		StartsAt:   time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC),
	}
}

func TestValidateReserveRequest_OK(t *testing.T) {
	ok, reason := validateReserveRequest(validRequest())
	if !ok {
		t.Fatalf("expected valid, got reason=%q", reason)
	}
	if reason != "" {
		t.Fatalf("expected empty reason, got %q", reason)
	}
}

func TestValidateReserveRequest_InvalidRange(t *testing.T) {
	req := validRequest()
	req.EndsAt = req.StartsAt

	ok, reason := validateReserveRequest(req)
	if ok {
		t.Fatalf("expected invalid")
	}
	if reason != "ends_at must be after starts_at" {
		t.Fatalf("expected reason %q, got %q", "ends_at must be after starts_at", reason)
	}
}

func TestValidateReserveRequest_TooLong(t *testing.T) {
	req := validRequest()
	req.EndsAt = req.StartsAt.Add(25 * time.Hour)

	ok, reason := validateReserveRequest(req)
	if ok {
		t.Fatalf("expected invalid")
	}
	if reason != "booking longer than a day" {
		t.Fatalf("expected reason %q, got %q", "booking longer than a day", reason)
	}
}

func TestValidateReserveRequest_MissingResource(t *testing.T) {
	req := validRequest()
	req.ResourceID = uuid.Nil

	ok, reason := validateReserveRequest(req)
	if ok {
		t.Fatalf("expected invalid")
	}
	if reason != "resource_id is required" {
		t.Fatalf("expected reason %q, got %q", "resource_id is required", reason)
	}
}

func TestValidateReserveRequest_LongIdempotencyKey(t *testing.T) {
	req := validRequest()
	req.IdempotencyKey = strings.Repeat("k", 129)

	ok, reason := validateReserveRequest(req)
	if ok {
		t.Fatalf("expected invalid")
	}
	if reason != "idempotency_key too long" {
		t.Fatalf("expected reason %q, got %q", "idempotency_key too long", reason)
	}
}
