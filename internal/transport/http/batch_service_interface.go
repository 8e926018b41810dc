package http

import (
	"context"
	"io"

	"cosmedcli/internal/services"
)

// BatchServiceInterface defines the interface for upload batch management
type BatchServiceInterface interface {
	CreateBatch(ctx context.Context) (*services.Batch, error)
	AddFile(ctx context.Context, batchID, filename string, r io.Reader) (*services.Batch, error)
	GetBatch(ctx context.Context, id string) (*services.Batch, error)
	ListBatches(ctx context.Context) []*services.Batch
	DeleteBatch(ctx context.Context, id string) error
	InputDir(ctx context.Context, id string) (string, error)
}
