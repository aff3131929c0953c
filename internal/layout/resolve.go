package layout

import (
	"errors"
	"fmt"
)

// ErrLayoutUnresolved is returned when the observed marker IDs do not
// identify exactly one known layout.
var ErrLayoutUnresolved = errors.New("layout unresolved")

// MinMarkers is the fewest markers of a layout needed to rebuild the sheet outline.
const MinMarkers = 2

// Resolve selects the layout identified by a set of observed marker IDs.
//
// A layout whose four IDs are all present is returned directly. Otherwise the
// layout sharing the most IDs with the observation is chosen, provided at
// least MinMarkers of its IDs were seen and no other layout matches as many.
// IDs that belong to no layout are ignored.
//
// When specs is empty the registered layouts are used.
func Resolve(ids []int, specs ...*Spec) (*Spec, error) {
	if len(specs) == 0 {
		specs = ListSpecs()
	}

	observed := make(map[int]bool, len(ids))
	for _, id := range ids {
		observed[id] = true
	}

	var best *Spec
	bestCount, tie := 0, false
	for _, s := range specs {
		count := 0
		for _, id := range s.MarkerIDs {
			if observed[id] {
				count++
			}
		}
		if count == len(s.MarkerIDs) {
			return s, nil
		}
		switch {
		case count > bestCount:
			best, bestCount, tie = s, count, false
		case count == bestCount && count > 0:
			tie = true
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no known marker ids in %v", ErrLayoutUnresolved, ids)
	}
	if tie {
		return nil, fmt.Errorf("%w: marker ids %v match several layouts equally", ErrLayoutUnresolved, ids)
	}
	if bestCount < MinMarkers {
		return nil, fmt.Errorf("%w: only %d of %d markers for %s", ErrLayoutUnresolved, bestCount, len(best.MarkerIDs), best.Name)
	}
	return best, nil
}
