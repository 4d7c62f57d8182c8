package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

func TestGroupByXidEmpty(t *testing.T) {
	assert.Empty(t, GroupByXid(nil))
}

func TestGroupByXidSingleBatch(t *testing.T) {
	rows := []types.PendingData{
		{SeqID: 1, Xid: 100},
		{SeqID: 2, Xid: 100},
		{SeqID: 3, Xid: 100},
	}

	batches := GroupByXid(rows)
	if assert.Len(t, batches, 1) {
		assert.Equal(t, int64(100), batches[0].Xid)
		assert.Len(t, batches[0].Rows, 3)
	}
}

func TestGroupByXidMultipleBatchesPreservesOrder(t *testing.T) {
	rows := []types.PendingData{
		{SeqID: 1, Xid: 100},
		{SeqID: 2, Xid: 100},
		{SeqID: 3, Xid: 101},
		{SeqID: 4, Xid: 102},
		{SeqID: 5, Xid: 102},
	}

	batches := GroupByXid(rows)
	if assert.Len(t, batches, 3) {
		assert.Equal(t, int64(100), batches[0].Xid)
		assert.Equal(t, int64(101), batches[1].Xid)
		assert.Equal(t, int64(102), batches[2].Xid)

		assert.Len(t, batches[0].Rows, 2)
		assert.Len(t, batches[1].Rows, 1)
		assert.Len(t, batches[2].Rows, 2)

		assert.Equal(t, int64(1), batches[0].Rows[0].SeqID)
		assert.Equal(t, int64(2), batches[0].Rows[1].SeqID)
	}
}

func TestGroupByXidRepeatedXidNotAdjacent(t *testing.T) {
	// An xid reappearing after a different one in between must start a
	// new batch rather than merging into the earlier one, since the
	// function only coalesces consecutive runs.
	rows := []types.PendingData{
		{SeqID: 1, Xid: 100},
		{SeqID: 2, Xid: 101},
		{SeqID: 3, Xid: 100},
	}

	batches := GroupByXid(rows)
	if assert.Len(t, batches, 3) {
		assert.Equal(t, int64(100), batches[0].Xid)
		assert.Equal(t, int64(101), batches[1].Xid)
		assert.Equal(t, int64(100), batches[2].Xid)
	}
}
