// Package collate reduces a race's candidate rows to a short, stable display list.
//
// The list keeps the leading candidates in full and folds everyone else into a
// single synthetic "Other" row. The result depends only on the race's rows, the
// static override set and the display options, so repeated cycles produce the
// same shape as vote totals move.
package collate

import (
	"sort"

	"github.com/padraicbc/electioncalls/calls"
	"github.com/padraicbc/electioncalls/models"
)

// DefaultTargetListLength is used when Options.TargetListLength is not positive.
const DefaultTargetListLength = 2

// OtherID is the candidate id of the synthetic folded row.
const OtherID = "other"

// Candidate is one display row. Rows built by this package with IsOther set
// summarize the folded candidates.
type Candidate struct {
	CandidateID string  `json:"candidateID"`
	First       string  `json:"first,omitempty"`
	Last        string  `json:"last"`
	Party       string  `json:"party,omitempty"`
	BallotOrder int     `json:"-"`
	Incumbent   bool    `json:"incumbent,omitempty"`
	VoteCount   int     `json:"votecount"`
	VotePct     float64 `json:"votepct"`
	Winner      bool    `json:"winner"`
	IsOther     bool    `json:"isOther,omitempty"`
}

// Options control the shape of the list.
type Options struct {
	TargetListLength int
	// OverrideSet pins candidate ids that must stay visible.
	OverrideSet []string
	// Compact is the big-board view: never an Other row, always exactly
	// TargetListLength rows when that many candidates exist.
	Compact bool
}

func (o Options) target() int {
	if o.TargetListLength <= 0 {
		return DefaultTargetListLength
	}
	return o.TargetListLength
}

// FromRecords converts a race's records into candidates with the desk's winner.
func FromRecords(recs []models.Record) []Candidate {
	out := make([]Candidate, 0, len(recs))
	for i := range recs {
		r := &recs[i].Result
		out = append(out, Candidate{
			CandidateID: r.CandidateID,
			First:       r.First,
			Last:        r.Last,
			Party:       r.Party,
			BallotOrder: r.BallotOrder,
			Incumbent:   r.Incumbent,
			VoteCount:   r.VoteCount,
			VotePct:     r.VotePct,
			Winner:      calls.Won(&recs[i]),
		})
	}
	return out
}

// Collate returns the display list for one race. The input is not modified.
func Collate(cands []Candidate, opts Options) []Candidate {
	n := opts.target()
	ordered := append([]Candidate(nil), cands...)

	hasVotes := totalVotes(ordered) > 0
	if hasVotes {
		sort.SliceStable(ordered, func(i, j int) bool { return byVotes(ordered[i], ordered[j]) })
	} else {
		sort.SliceStable(ordered, func(i, j int) bool { return byMajorParty(ordered[i], ordered[j]) })
		if opts.Compact {
			balanceParties(ordered, n)
		}
	}

	var keep, folded []Candidate
	if len(opts.OverrideSet) > 0 {
		keep, folded = pin(ordered, opts.OverrideSet, hasVotes)
	} else {
		keep, folded = split(ordered, n)
	}

	if opts.Compact {
		if len(keep) > n {
			keep = keep[:n]
		}
		return keep
	}
	if len(folded) == 0 {
		return keep
	}
	return append(keep, fold(folded))
}

func totalVotes(cands []Candidate) int {
	total := 0
	for _, c := range cands {
		total += c.VoteCount
	}
	return total
}

// byVotes orders real candidates by votes, then by a fixed tie-break so the
// order does not depend on how rows arrived. Other rows always sort last.
func byVotes(a, b Candidate) bool {
	if a.IsOther != b.IsOther {
		return b.IsOther
	}
	if a.VoteCount != b.VoteCount {
		return a.VoteCount > b.VoteCount
	}
	return byBallot(a, b)
}

func byMajorParty(a, b Candidate) bool {
	if a.IsOther != b.IsOther {
		return b.IsOther
	}
	am, bm := models.IsMajorParty(a.Party), models.IsMajorParty(b.Party)
	if am != bm {
		return am
	}
	return byBallot(a, b)
}

func byBallot(a, b Candidate) bool {
	if a.BallotOrder != b.BallotOrder {
		return a.BallotOrder < b.BallotOrder
	}
	if a.Last != b.Last {
		return a.Last < b.Last
	}
	return a.CandidateID < b.CandidateID
}

// balanceParties makes sure the first n rows are not all one major party when
// another major party is on the ballot. The first such candidate below the cut
// moves into the last visible slot.
func balanceParties(ordered []Candidate, n int) {
	if n < 2 || len(ordered) <= n {
		return
	}
	lead := ordered[0].Party
	if !models.IsMajorParty(lead) {
		return
	}
	for _, c := range ordered[1:n] {
		if c.Party != lead {
			return
		}
	}
	for i := n; i < len(ordered); i++ {
		if models.IsMajorParty(ordered[i].Party) && ordered[i].Party != lead {
			c := ordered[i]
			copy(ordered[n:i+1], ordered[n-1:i])
			ordered[n-1] = c
			return
		}
	}
}

func split(ordered []Candidate, n int) (keep, folded []Candidate) {
	if len(ordered) <= n {
		return ordered, nil
	}
	return ordered[:n:n], ordered[n:]
}

// pin keeps exactly the override ids. Before any votes they appear in override
// order, afterwards in vote order.
func pin(ordered []Candidate, ids []string, hasVotes bool) (keep, folded []Candidate) {
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	for _, c := range ordered {
		if _, ok := rank[c.CandidateID]; ok && !c.IsOther {
			keep = append(keep, c)
		} else {
			folded = append(folded, c)
		}
	}
	if !hasVotes {
		sort.SliceStable(keep, func(i, j int) bool {
			return rank[keep[i].CandidateID] < rank[keep[j].CandidateID]
		})
	}
	return keep, folded
}

func fold(folded []Candidate) Candidate {
	other := Candidate{CandidateID: OtherID, Last: "Other", IsOther: true}
	for _, c := range folded {
		other.VoteCount += c.VoteCount
		other.VotePct += c.VotePct
		if c.Winner {
			other.Winner = true
		}
	}
	return other
}
