package services

import (
	"context"
	"log/slog"

	"cosmedcli/internal/infrastructure"
)

// Helper functions for conversion service logging using centralized infrastructure logger

// logConversionError logs an error in conversion service operations
func logConversionError(ctx context.Context, action, message string, attrs ...slog.Attr) {
	logger := infrastructure.WithComponent(infrastructure.LoggerWithContext(ctx), "conversion_service")

	allAttrs := []slog.Attr{
		slog.String("action", action),
	}
	allAttrs = append(allAttrs, attrs...)

	logger.LogAttrs(ctx, slog.LevelError, message, allAttrs...)
}
