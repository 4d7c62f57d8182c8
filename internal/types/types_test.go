package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingDataSchemaAndTableName(t *testing.T) {
	p := PendingData{Table: "musicbrainz.artist"}
	assert.Equal(t, "musicbrainz", p.Schema())
	assert.Equal(t, "artist", p.TableName())
}

func TestPendingDataSchemaAndTableNameNoDot(t *testing.T) {
	p := PendingData{Table: "artist"}
	assert.Equal(t, "", p.Schema())
	assert.Equal(t, "artist", p.TableName())
}

func TestPendingDataTableNameStopsAtFirstDot(t *testing.T) {
	// schema.table pairs never contain a second dot in practice, but the
	// split must still take only the first one rather than the last.
	p := PendingData{Table: "musicbrainz.l_artist.url"}
	assert.Equal(t, "musicbrainz", p.Schema())
	assert.Equal(t, "l_artist.url", p.TableName())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "insert", OpInsert.String())
	assert.Equal(t, "update", OpUpdate.String())
	assert.Equal(t, "delete", OpDelete.String())
	assert.Equal(t, "unknown", Op('x').String())
}
