package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wowzarush/backend/internal/pagination"
	"github.com/wowzarush/backend/internal/testutil"
)

func TestPostgresStore_ResolveIsOneWay(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	r := &Report{
		ID:              "rpt_it_resolve",
		CampaignID:      "cmp_it_1",
		ReporterAddress: "0x1111111111111111111111111111111111111111",
		Reason:          ReasonScam,
		Details:         "stolen project photos",
		Evidence:        []string{"https://example.com/original"},
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, r))

	resolved, err := store.Resolve(ctx, r.ID, "confirmed and removed", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "confirmed and removed", resolved.Resolution)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = store.Resolve(ctx, r.ID, "second attempt", time.Now().UTC())
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err = store.Resolve(ctx, "rpt_it_missing", "whatever", time.Now().UTC())
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestPostgresStore_ListAndCount(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	ids := []string{"rpt_it_a", "rpt_it_b", "rpt_it_c"}
	for i, id := range ids {
		require.NoError(t, store.Create(ctx, &Report{
			ID:              id,
			CampaignID:      "cmp_it_list",
			ReporterAddress: "0x2222222222222222222222222222222222222222",
			Reason:          ReasonFraud,
			Details:         "suspicious milestone claims",
			Evidence:        []string{},
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	// Newest first.
	listed, err := store.ListByCampaign(ctx, "cmp_it_list", nil, 10)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "rpt_it_c", listed[0].ID)
	assert.Equal(t, "rpt_it_a", listed[2].ID)

	// Cursor pages past the first result.
	cursor := &pagination.Cursor{CreatedAt: listed[0].CreatedAt, ID: listed[0].ID}
	page, err := store.ListByCampaign(ctx, "cmp_it_list", cursor, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "rpt_it_b", page[0].ID)

	count, err := store.CountUnresolved(ctx, "cmp_it_list")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = store.Resolve(ctx, "rpt_it_b", "reviewed, fine", time.Now().UTC())
	require.NoError(t, err)

	count, err = store.CountUnresolved(ctx, "cmp_it_list")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// brokenRow is a rowScanner whose Scan always fails, standing in for a
// driver-level decode error.
type brokenRow struct{ err error }

func (b brokenRow) Scan(dest ...any) error { return b.err }

func TestScanReportPropagatesScanError(t *testing.T) {
	scanErr := errors.New("cannot decode row")

	r, err := scanReport(brokenRow{err: scanErr})
	assert.Nil(t, r)
	assert.ErrorIs(t, err, scanErr)
}
