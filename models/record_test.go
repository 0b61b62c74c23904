package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	res := Result{ID: "r1", RaceID: "1001", Party: PartyDem}
	call := DefaultCall("r1")
	meta := RaceMeta{ResultID: "r1", CurrentParty: PartyGOP}

	t.Run("complete", func(t *testing.T) {
		rec, err := NewRecord(res, &call, &meta)
		require.NoError(t, err)
		assert.Equal(t, "r1", rec.Result.ID)
		assert.True(t, rec.Call.AcceptWire)
		assert.Equal(t, PartyGOP, rec.Meta.CurrentParty)
	})

	t.Run("missing call", func(t *testing.T) {
		_, err := NewRecord(res, nil, &meta)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDataIntegrity))

		var die *DataIntegrityError
		require.ErrorAs(t, err, &die)
		assert.Equal(t, "call", die.Missing)
	})

	t.Run("missing meta", func(t *testing.T) {
		_, err := NewRecord(res, &call, nil)
		var die *DataIntegrityError
		require.ErrorAs(t, err, &die)
		assert.Equal(t, "race_meta", die.Missing)
	})

	t.Run("from loaded relations", func(t *testing.T) {
		loaded := res
		loaded.Call = &call
		loaded.Meta = &meta
		rec, err := RecordFromResult(loaded)
		require.NoError(t, err)
		assert.Nil(t, rec.Result.Call)
		assert.Nil(t, rec.Result.Meta)
	})
}

func TestBucket(t *testing.T) {
	assert.Equal(t, PartyDem, Bucket("Dem"))
	assert.Equal(t, PartyGOP, Bucket("GOP"))
	assert.Equal(t, PartyOther, Bucket("Lib"))
	assert.Equal(t, PartyOther, Bucket(""))
}

func TestErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, &LookupMismatchError{Sheet: "seats", Key: "AL", Matches: 2}, ErrLookupMismatch)
	assert.ErrorIs(t, &UpstreamFeedError{Source: "results.csv"}, ErrUpstreamFeed)

	cause := errors.New("exit status 1")
	err := &UpstreamFeedError{Source: "elex", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestIsSpecial(t *testing.T) {
	assert.True(t, (&Result{RaceType: "Special General"}).IsSpecial())
	assert.False(t, (&Result{RaceType: "General"}).IsSpecial())
}
