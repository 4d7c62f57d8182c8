package pending

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

func TestCompileInsert(t *testing.T) {
	c := NewCompiler()
	row := types.PendingData{
		SeqID: 1,
		Xid:   100,
		Table: "musicbrainz.artist",
		Op:    types.OpInsert,
		NewData: sql.NullString{
			String: "id=1\tname=O'Brien\tcomment=NULL\tediting=TRUE",
			Valid:  true,
		},
	}

	stmt, err := c.Compile(row, types.PendingKeys{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO musicbrainz.artist (id, name, comment, editing) VALUES (1, 'O''Brien', NULL, TRUE)", stmt)
}

func TestCompileUpdate(t *testing.T) {
	c := NewCompiler()
	row := types.PendingData{
		SeqID: 2,
		Xid:   100,
		Table: "musicbrainz.artist",
		Op:    types.OpUpdate,
		OldData: sql.NullString{
			String: "id=1",
			Valid:  true,
		},
		NewData: sql.NullString{
			String: "name=O'Brien",
			Valid:  true,
		},
	}
	keys := types.PendingKeys{Schema: "musicbrainz", Table: "artist", Keys: []string{"id"}}

	stmt, err := c.Compile(row, keys)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE musicbrainz.artist SET name = 'O''Brien' WHERE id = 1", stmt)
}

func TestCompileUpdateMissingOldData(t *testing.T) {
	c := NewCompiler()
	row := types.PendingData{
		Table:   "musicbrainz.artist",
		Op:      types.OpUpdate,
		NewData: sql.NullString{String: "name=Renamed", Valid: true},
	}
	keys := types.PendingKeys{Schema: "musicbrainz", Table: "artist", Keys: []string{"id"}}

	_, err := c.Compile(row, keys)
	assert.Error(t, err)
}

func TestCompileDelete(t *testing.T) {
	c := NewCompiler()
	row := types.PendingData{
		SeqID: 3,
		Xid:   100,
		Table: "musicbrainz.artist",
		Op:    types.OpDelete,
		OldData: sql.NullString{
			String: "id=1\tname=Whoever",
			Valid:  true,
		},
	}
	keys := types.PendingKeys{Schema: "musicbrainz", Table: "artist", Keys: []string{"id"}}

	stmt, err := c.Compile(row, keys)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM musicbrainz.artist WHERE id = 1", stmt)
}

func TestCompileDeleteMissingKeyField(t *testing.T) {
	c := NewCompiler()
	row := types.PendingData{
		Table:   "musicbrainz.artist",
		Op:      types.OpDelete,
		OldData: sql.NullString{String: "name=Whoever", Valid: true},
	}
	keys := types.PendingKeys{Schema: "musicbrainz", Table: "artist", Keys: []string{"id"}}

	_, err := c.Compile(row, keys)
	assert.Error(t, err)
}

func TestCompileInsertMissingNewData(t *testing.T) {
	c := NewCompiler()
	row := types.PendingData{Table: "musicbrainz.artist", Op: types.OpInsert}

	_, err := c.Compile(row, types.PendingKeys{})
	assert.Error(t, err)
}

func TestQuoteLiteral(t *testing.T) {
	cases := map[string]string{
		"NULL":     "NULL",
		"TRUE":     "TRUE",
		"FALSE":    "FALSE",
		"42":       "42",
		"3.14":     "3.14",
		"hello":    "'hello'",
		"it's":     "'it''s'",
		"":         "''",
	}
	for in, want := range cases {
		assert.Equal(t, want, quoteLiteral(in), "input %q", in)
	}
}
