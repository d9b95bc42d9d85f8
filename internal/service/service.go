package service

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock

import (
	"context"

	"github.com/fleshka4/dex-bridge/internal/service/dto"
)

// Service represents interface for business logic.
type Service interface {
	ComputeRoutes(ctx context.Context, req dto.RoutesRequest) (*dto.RoutesResult, error)
}
