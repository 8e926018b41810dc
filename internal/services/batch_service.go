package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cosmedcli/internal/config"
	"cosmedcli/internal/files"
	"cosmedcli/internal/infrastructure"
	"cosmedcli/internal/validation"
)

// Batch tracks one set of uploaded session files awaiting conversion
type Batch struct {
	ID         string    `json:"id"`
	Dir        string    `json:"-"`
	FileCount  int       `json:"file_count"`
	TotalBytes int64     `json:"total_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// BatchService manages uploaded batches of session files. Batches live
// in memory and on disk under the uploads directory; a server restart
// forgets the registry but leaves the files for cleanup.
type BatchService struct {
	paths     *config.Paths
	logger    *slog.Logger
	manager   *files.Manager
	validator *validation.FileValidator
	metrics   *infrastructure.BusinessMetrics

	mu      sync.RWMutex
	batches map[string]*Batch
}

// NewBatchService creates a batch service. metrics may be nil.
func NewBatchService(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "batch_service"))

	return &BatchService{
		paths:     paths,
		logger:    logger,
		manager:   files.NewManager(paths),
		validator: validation.NewFileValidator(logger),
		metrics:   metrics,
		batches:   make(map[string]*Batch),
	}
}

// CreateBatch registers a new empty batch and creates its directory
func (s *BatchService) CreateBatch(ctx context.Context) (*Batch, error) {
	batch := &Batch{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}
	batch.Dir = s.paths.GetBatchDir(batch.ID)

	if err := s.manager.EnsureDirectory(batch.Dir); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	s.mu.Lock()
	s.batches[batch.ID] = batch
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Batch created",
		slog.String("batch_id", batch.ID),
		slog.String("dir", batch.Dir))

	snapshot := *batch
	return &snapshot, nil
}

// AddFile streams one uploaded session file into a batch and returns
// the updated batch state.
func (s *BatchService) AddFile(ctx context.Context, batchID, filename string, r io.Reader) (*Batch, error) {
	if err := s.validator.ValidateUploadFilename(filename); err != nil {
		return nil, err
	}

	s.mu.RLock()
	_, ok := s.batches[batchID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}

	written, err := s.manager.SaveUpload(batchID, filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	infrastructure.RecordUploadBytes(ctx, s.metrics, written)

	s.mu.Lock()
	batch, ok := s.batches[batchID]
	if !ok {
		// Batch was deleted while the upload streamed in
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	batch.FileCount++
	batch.TotalBytes += written
	snapshot := *batch
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Upload stored",
		slog.String("batch_id", batchID),
		slog.String("filename", filename),
		slog.Int64("bytes", written))

	return &snapshot, nil
}

// GetBatch returns a snapshot of one batch
func (s *BatchService) GetBatch(ctx context.Context, id string) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	snapshot := *batch
	return &snapshot, nil
}

// ListBatches returns snapshots of all known batches, newest first
func (s *BatchService) ListBatches(ctx context.Context) []*Batch {
	s.mu.RLock()
	out := make([]*Batch, 0, len(s.batches))
	for _, b := range s.batches {
		snapshot := *b
		out = append(out, &snapshot)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// DeleteBatch removes a batch and its uploaded files
func (s *BatchService) DeleteBatch(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.batches[id]
	if ok {
		delete(s.batches, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}

	if err := s.manager.DeleteBatch(id); err != nil {
		return fmt.Errorf("failed to delete batch files: %w", err)
	}

	s.logger.InfoContext(ctx, "Batch deleted", slog.String("batch_id", id))
	return nil
}

// InputDir returns the directory a conversion should read for a batch.
// Errors when the batch is unknown or still empty.
func (s *BatchService) InputDir(ctx context.Context, id string) (string, error) {
	batch, err := s.GetBatch(ctx, id)
	if err != nil {
		return "", err
	}
	if batch.FileCount == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyBatch, id)
	}
	return batch.Dir, nil
}
