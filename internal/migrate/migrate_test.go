package migrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixoo-app/fixoo/migrations"
)

func TestFiles_OrderedAndGooseAnnotated(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.Equal(t, []string{"00001_kv_entries.sql", "00002_admins.sql"}, files)

	for _, f := range files {
		b, err := migrations.FS.ReadFile(f)
		require.NoError(t, err)
		require.True(t, strings.Contains(string(b), "-- +goose Up"), f)
		require.True(t, strings.Contains(string(b), "-- +goose Down"), f)
	}
}
