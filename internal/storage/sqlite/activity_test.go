package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLog_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(ctx, filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	defer db.Close()

	al := NewActivityLog(db)

	al.Record(ctx, core.ActivityRecord{
		Category: "search",
		Summary:  `findFile: "resume"`,
		Status:   core.ActivityStatusSuccess,
		Metadata: map[string]any{"results": 3},
	})
	al.Record(ctx, core.ActivityRecord{
		Category: "search",
		Summary:  `searchContent: "meeting notes"`,
		Detail:   "backend down",
		Status:   core.ActivityStatusError,
	})

	entries, err := al.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, core.ActivityStatusError, entries[0].Status)
	assert.Equal(t, "backend down", entries[0].Detail)
	assert.Equal(t, core.ActivityStatusSuccess, entries[1].Status)
	assert.Equal(t, float64(3), entries[1].Metadata["results"])
}

func TestActivityLog_RecordNeverFails(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(ctx, filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	db.Close() // force insert failures

	al := NewActivityLog(db)

	// Must not panic or propagate.
	al.Record(ctx, core.ActivityRecord{Category: "search", Summary: "x", Status: core.ActivityStatusSuccess})
}
