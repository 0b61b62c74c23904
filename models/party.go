package models

import "strings"

// Party buckets used for seat counting.
const (
	PartyDem   = "Dem"
	PartyGOP   = "GOP"
	PartyOther = "Other"
)

// ExpectedCompetitive marks a seat the reference sheet rates as competitive.
const ExpectedCompetitive = "competitive"

// IsMajorParty reports whether p is one of the two major parties.
func IsMajorParty(p string) bool {
	return p == PartyDem || p == PartyGOP
}

// Bucket folds any non-major party into Other.
func Bucket(p string) string {
	if IsMajorParty(p) {
		return p
	}
	return PartyOther
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
