package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// RequirePanicIs runs fn and fails the test unless it panics with an error
// that wraps target.
func RequirePanicIs(t testing.TB, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic wrapping %v", target)
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.ErrorIs(t, err, target)
	}()
	fn()
}
