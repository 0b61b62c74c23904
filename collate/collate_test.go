package collate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/electioncalls/models"
)

func cand(id, party string, ballot, votes int) Candidate {
	return Candidate{CandidateID: id, Last: id, Party: party, BallotOrder: ballot, VoteCount: votes}
}

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.CandidateID
	}
	return out
}

func TestCollateWithVotes(t *testing.T) {
	in := []Candidate{
		cand("I", "Ind", 3, 5),
		cand("R", "GOP", 2, 80),
		cand("D", "Dem", 1, 100),
	}

	out := Collate(in, Options{TargetListLength: 2})

	require.Len(t, out, 3)
	assert.Equal(t, "D", out[0].CandidateID)
	assert.Equal(t, 100, out[0].VoteCount)
	assert.Equal(t, "R", out[1].CandidateID)
	assert.Equal(t, 80, out[1].VoteCount)
	assert.True(t, out[2].IsOther)
	assert.Equal(t, OtherID, out[2].CandidateID)
	assert.Equal(t, 5, out[2].VoteCount)

	// input untouched
	assert.Equal(t, "I", in[0].CandidateID)
}

func TestCollateOtherSums(t *testing.T) {
	in := []Candidate{
		{CandidateID: "a", Party: "Dem", VoteCount: 50, VotePct: 0.5},
		{CandidateID: "b", Party: "GOP", VoteCount: 30, VotePct: 0.3},
		{CandidateID: "c", Party: "Lib", VoteCount: 15, VotePct: 0.15},
		{CandidateID: "d", Party: "Grn", VoteCount: 5, VotePct: 0.05, Winner: true},
	}
	out := Collate(in, Options{})
	require.Len(t, out, 3)
	other := out[2]
	assert.Equal(t, 20, other.VoteCount)
	assert.InDelta(t, 0.20, other.VotePct, 1e-9)
	assert.True(t, other.Winner, "a folded declared winner marks Other")
}

func TestCollateOmitsEmptyOther(t *testing.T) {
	in := []Candidate{cand("D", "Dem", 1, 10), cand("R", "GOP", 2, 20)}
	out := Collate(in, Options{TargetListLength: 2})
	assert.Equal(t, []string{"R", "D"}, ids(out))
}

func TestCollateDefaultLength(t *testing.T) {
	in := []Candidate{cand("a", "Dem", 1, 3), cand("b", "GOP", 2, 2), cand("c", "Lib", 3, 1)}
	out := Collate(in, Options{})
	assert.Equal(t, []string{"a", "b", OtherID}, ids(out))
}

func TestCollateNoVotesMajorPartiesFirst(t *testing.T) {
	in := []Candidate{
		cand("lib", "Lib", 1, 0),
		cand("dem", "Dem", 2, 0),
		cand("gop", "GOP", 3, 0),
	}
	out := Collate(in, Options{TargetListLength: 2})
	assert.Equal(t, []string{"dem", "gop", OtherID}, ids(out))
}

func TestCollateCompact(t *testing.T) {
	in := []Candidate{
		cand("D", "Dem", 1, 100),
		cand("R", "GOP", 2, 80),
		cand("I", "Ind", 3, 5),
		cand("G", "Grn", 4, 1),
	}

	out := Collate(in, Options{TargetListLength: 2, Compact: true})
	assert.Equal(t, []string{"D", "R"}, ids(out))
	for _, c := range out {
		assert.False(t, c.IsOther)
	}

	t.Run("truncates override set", func(t *testing.T) {
		out := Collate(in, Options{TargetListLength: 2, Compact: true, OverrideSet: []string{"D", "R", "I"}})
		assert.Equal(t, []string{"D", "R"}, ids(out))
	})
}

func TestCollateCompactRotatesSecondParty(t *testing.T) {
	in := []Candidate{
		cand("D1", "Dem", 1, 0),
		cand("D2", "Dem", 2, 0),
		cand("I", "Ind", 3, 0),
		cand("R1", "GOP", 4, 0),
	}

	out := Collate(in, Options{TargetListLength: 2, Compact: true})
	assert.Equal(t, []string{"D1", "R1"}, ids(out))

	t.Run("non-compact keeps natural order", func(t *testing.T) {
		out := Collate(in, Options{TargetListLength: 2})
		assert.Equal(t, []string{"D1", "D2", OtherID}, ids(out))
	})

	t.Run("single party race left alone", func(t *testing.T) {
		only := []Candidate{cand("D1", "Dem", 1, 0), cand("D2", "Dem", 2, 0), cand("I", "Ind", 3, 0)}
		out := Collate(only, Options{TargetListLength: 2, Compact: true})
		assert.Equal(t, []string{"D1", "D2"}, ids(out))
	})

	t.Run("no rotation once votes exist", func(t *testing.T) {
		voted := []Candidate{cand("D1", "Dem", 1, 10), cand("D2", "Dem", 2, 8), cand("R1", "GOP", 3, 2)}
		out := Collate(voted, Options{TargetListLength: 2, Compact: true})
		assert.Equal(t, []string{"D1", "D2"}, ids(out))
	})
}

func TestCollateOverrideSet(t *testing.T) {
	in := []Candidate{
		cand("D", "Dem", 1, 0),
		cand("R", "GOP", 2, 0),
		cand("I", "Ind", 3, 0),
		cand("W", "", 4, 0),
	}

	t.Run("pinned independent before votes", func(t *testing.T) {
		out := Collate(in, Options{TargetListLength: 2, OverrideSet: []string{"I"}})
		require.NotEmpty(t, out)
		assert.Equal(t, "I", out[0].CandidateID)
		assert.Equal(t, []string{"I", OtherID}, ids(out))
	})

	t.Run("override order before votes", func(t *testing.T) {
		out := Collate(in, Options{OverrideSet: []string{"W", "D", "I"}})
		assert.Equal(t, []string{"W", "D", "I", OtherID}, ids(out))
	})

	t.Run("vote order after votes", func(t *testing.T) {
		voted := []Candidate{
			cand("D", "Dem", 1, 10),
			cand("R", "GOP", 2, 40),
			cand("I", "Ind", 3, 30),
			cand("W", "", 4, 20),
		}
		out := Collate(voted, Options{OverrideSet: []string{"W", "D", "I"}})
		assert.Equal(t, []string{"I", "W", "D", OtherID}, ids(out))
		assert.Equal(t, 40, out[3].VoteCount)
	})

	t.Run("every candidate pinned", func(t *testing.T) {
		out := Collate(in, Options{OverrideSet: []string{"D", "R", "I", "W"}})
		assert.Equal(t, []string{"D", "R", "I", "W"}, ids(out))
	})
}

func TestCollateIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	parties := []string{"Dem", "GOP", "Lib", "Grn", "Ind"}

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(6)
		in := make([]Candidate, n)
		withVotes := rng.Intn(2) == 0
		for i := range in {
			votes := 0
			if withVotes {
				votes = rng.Intn(1000)
			}
			in[i] = cand(string(rune('a'+i)), parties[rng.Intn(len(parties))], i+1, votes)
			in[i].Winner = rng.Intn(8) == 0
		}

		opts := Options{TargetListLength: 1 + rng.Intn(3), Compact: rng.Intn(2) == 0}
		if rng.Intn(3) == 0 {
			opts.OverrideSet = []string{in[rng.Intn(n)].CandidateID}
		}

		once := Collate(in, opts)
		twice := Collate(once, opts)
		require.Equal(t, once, twice, "trial %d opts %+v", trial, opts)
	}
}

func TestCollateOrderIndependent(t *testing.T) {
	in := []Candidate{
		cand("a", "Dem", 1, 10),
		cand("b", "GOP", 2, 10),
		cand("c", "Lib", 3, 10),
	}
	reversed := []Candidate{in[2], in[1], in[0]}
	assert.Equal(t, Collate(in, Options{}), Collate(reversed, Options{}))
}

func TestFromRecords(t *testing.T) {
	recs := []models.Record{
		{
			Result: models.Result{CandidateID: "1", Last: "Jones", Party: "Dem", Level: models.LevelState, VoteCount: 10, Winner: true},
			Call:   models.Call{AcceptWire: false},
		},
		{
			Result: models.Result{CandidateID: "2", Last: "Moore", Party: "GOP", Level: models.LevelState, VoteCount: 9},
			Call:   models.Call{OverrideWinner: true},
		},
	}
	cs := FromRecords(recs)
	require.Len(t, cs, 2)
	assert.False(t, cs[0].Winner, "rejected wire call")
	assert.True(t, cs[1].Winner, "manual override")
	assert.Equal(t, "Jones", cs[0].Last)
}
