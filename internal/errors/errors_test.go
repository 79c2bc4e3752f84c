package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodegraphError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      UnreadableFile,
			message:   "cannot read src/a.ts",
			cause:     errors.New("permission denied"),
			wantParts: []string{"UNREADABLE_FILE", "cannot read src/a.ts", "permission denied"},
		},
		{
			name:      "without cause",
			code:      FileTooLarge,
			message:   "file exceeds 10 MB",
			wantParts: []string{"FILE_TOO_LARGE", "file exceeds 10 MB"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				assert.Contains(t, got, part)
			}
		})
	}
}

func TestCodegraphError_Unwrap(t *testing.T) {
	cause := errors.New("disk gone")
	err := New(StorageError, "insert failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Nil(t, New(InternalError, "boom", nil).Unwrap())
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("guard: %w", New(TotalSizeExceeded, "budget spent", nil))

	assert.Equal(t, TotalSizeExceeded, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, TotalSizeExceeded))
	assert.False(t, HasCode(wrapped, FileTooLarge))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, HasCode(nil, InternalError))
}

func TestWithDetails(t *testing.T) {
	err := New(InvalidConfig, "bad value", nil).WithDetails(map[string]int{"maxChunks": 1})
	assert.Equal(t, map[string]int{"maxChunks": 1}, err.Details)
}
