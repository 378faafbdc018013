package scoring

import (
	"fmt"
	"sort"
)

// version maps the first challenge a rule set applies to onto its Scorer.
type version struct {
	from   int
	scorer Scorer
}

// versions is sorted by from, starting at 0. A new rule set is appended
// with the first challenge number it governs.
//
//nolint:gochecknoglobals // read-only version table
var versions = []version{
	{from: 0, scorer: Scorer1{}},
}

// Get returns the Scorer valid at challengeNumber.
func Get(challengeNumber int) (Scorer, error) {
	return lookup(versions, challengeNumber)
}

func lookup(table []version, challengeNumber int) (Scorer, error) {
	if challengeNumber < 0 {
		return nil, fmt.Errorf("%w: challenge %d", ErrInvalidVersion, challengeNumber)
	}
	// first entry starting after challengeNumber
	i := sort.Search(len(table), func(i int) bool { return table[i].from > challengeNumber })
	if i == 0 {
		return nil, fmt.Errorf("%w: no rules for challenge %d", ErrInvalidVersion, challengeNumber)
	}
	return table[i-1].scorer, nil
}
