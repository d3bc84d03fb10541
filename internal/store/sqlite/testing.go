package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestStore returns a migrated in-memory store closed on test cleanup.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, s.Migrate(context.Background()), "failed to run migrations")

	t.Cleanup(func() {
		s.Close()
	})
	return s
}
