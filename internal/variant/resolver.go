package variant

import (
	"fmt"
	"sort"
)

// Groups maps full-flavor variants by their grouping key, preserving the
// insertion order of the (name-sorted) asset listing within each group.
type Groups map[Key][]*Variant

// GroupFull partitions the full-flavor variants by key. Install-only
// variants are ignored; every full variant lands in exactly one group.
func GroupFull(variants []*Variant) Groups {
	groups := make(Groups)
	for _, v := range variants {
		if v.Flavor != FlavorFull {
			continue
		}
		key := v.GroupKey()
		groups[key] = append(groups[key], v)
	}
	return groups
}

// NoMatchingFullBuildError indicates an install-only variant with no full
// build sharing its (implementation, version, triplet) key. Non-fatal to
// other variants: the affected one simply cannot be enriched.
type NoMatchingFullBuildError struct {
	Variant *Variant
}

func (e *NoMatchingFullBuildError) Error() string {
	return fmt.Sprintf("no full build found for %s-%s-%s",
		e.Variant.Implementation, e.Variant.PythonVersion, e.Variant.Triplet)
}

// BestMatch selects the full build that supplies metadata for the given
// install-only variant: the group member with the lowest config priority.
// The sort is stable, so duplicated configs resolve to the earliest-inserted
// entry. Returns *NoMatchingFullBuildError when the group is empty.
func (g Groups) BestMatch(v *Variant) (*Variant, error) {
	group := g[v.GroupKey()]
	if len(group) == 0 {
		return nil, &NoMatchingFullBuildError{Variant: v}
	}

	candidates := make([]*Variant, len(group))
	copy(candidates, group)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Config.Priority() < candidates[j].Config.Priority()
	})

	return candidates[0], nil
}
