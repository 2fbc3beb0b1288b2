package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/store"
)

// NewTestStore opens a roster database in a temp directory with the schema
// in place. Any recs given are written before it is returned.
func NewTestStore(t *testing.T, recs ...records.Record) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "roster.db"))
	MustNoErr(t, err, "open store")
	t.Cleanup(func() { st.Close() })

	MustNoErr(t, st.InitSchema(), "init schema")
	if len(recs) > 0 {
		MustNoErr(t, st.ReplaceRecords(context.Background(), recs), "seed store")
	}
	return st
}
