package http

import (
	"context"

	api "cosmedcli/pkg/contracts/api/v1"
	"cosmedcli/pkg/contracts/domain"
)

// ConversionServiceInterface defines the interface for conversion operations
type ConversionServiceInterface interface {
	Convert(ctx context.Context, req api.ConvertRequest) (*api.ConversionResult, error)
	Preview(ctx context.Context, req api.PreviewRequest) (*api.PreviewResponse, error)
	DiscoverParameters(ctx context.Context, dir string, sample int) (*api.ParameterListResponse, error)
	Summarize(ctx context.Context, dir string) (*domain.ExtractionSummary, error)
}
