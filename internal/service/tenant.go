package service

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	TenantHeader = "x-tenant-id"
	// CallerHeader set to "system" marks trusted internal callers, such as
	// payment webhooks, that act on bookings of any tenant.
	CallerHeader = "x-caller"
	systemCaller = "system"
)

// tenantFromContext returns the merchant the call is scoped to. With
// allowSystem, a system caller without a tenant gets uuid.Nil.
func tenantFromContext(ctx context.Context, allowSystem bool) (uuid.UUID, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if vals := md.Get(TenantHeader); len(vals) > 0 && vals[0] != "" {
		id, err := uuid.Parse(vals[0])
		if err != nil {
			return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is invalid", TenantHeader)
		}
		return id, nil
	}
	if vals := md.Get(CallerHeader); allowSystem && len(vals) > 0 && vals[0] == systemCaller {
		return uuid.Nil, nil
	}
	return uuid.Nil, status.Errorf(codes.Unauthenticated, "%s metadata is required", TenantHeader)
}
