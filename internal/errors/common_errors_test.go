package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewParsingError("failed to decode session", assert.AnError),
			want: "[PARSING] failed to decode session: " + assert.AnError.Error(),
		},
		{
			name: "without cause",
			err:  NewAppValidationError("filename must end in .xml"),
			want: "[VALIDATION] filename must end in .xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("failed to write report", cause)

	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(error(err), &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewConfigError("failed to load config", nil).
		WithContext("path", "/etc/cosmed/config.yaml").
		WithContext("attempt", 2)

	assert.Equal(t, "/etc/cosmed/config.yaml", err.Context["path"])
	assert.Equal(t, 2, err.Context["attempt"])
}

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"parsing", NewParsingError("bad xml", nil), ErrTypeParsing},
		{"storage", NewStorageError("write failed", nil), ErrTypeStorage},
		{"validation", NewAppValidationError("bad input"), ErrTypeValidation},
		{"not found", NewNotFoundError("batch"), ErrTypeNotFound},
		{"permission", NewPermissionError("read denied"), ErrTypePermission},
		{"config", NewConfigError("bad yaml", nil), ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestNewNotFoundError_Message(t *testing.T) {
	err := NewNotFoundError("report")
	assert.Equal(t, "[NOT_FOUND] report not found", err.Error())
}
