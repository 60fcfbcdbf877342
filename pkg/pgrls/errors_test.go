package pgrls

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"invalid config", ErrInvalidConfig, ExitConfigError},
		{"unsupported auth", ErrUnsupportedAuthMethod, ExitConfigError},
		{"connection failed", ErrConnectionFailed, ExitConnectionError},
		{"already bound", ErrAlreadyBound, ExitBindError},
		{"bind mismatch", ErrBindMismatch, ExitBindError},
		{"partial completion", ErrPartialCompletion, ExitPartialCompletion},
		{"unclassified", errors.New("boom"), ExitGeneralError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

func TestExitCodeForWrappedError(t *testing.T) {
	err := fmt.Errorf("run abc: 500 of 1000 rows: %w", ErrPartialCompletion)
	assert.Equal(t, ExitPartialCompletion, ExitCodeForError(err))

	err = fmt.Errorf("opening session: %w", ErrAlreadyBound)
	assert.Equal(t, ExitBindError, ExitCodeForError(err))
}

func TestExitCodeForConnectionMessagePatterns(t *testing.T) {
	assert.Equal(t, ExitConnectionError,
		ExitCodeForError(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.Equal(t, ExitConnectionError,
		ExitCodeForError(errors.New("lookup badhost: no such host")))
}
