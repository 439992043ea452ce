package placement

// CodeType identifies the erasure-code family governing a placement's
// loss predicate (spec.md §4.2, original_source/lib/placement.py
// CODE_TYPE_* constants).
type CodeType int

const (
	CodeRS CodeType = iota
	CodeLRC
	CodeDRC
)

func (c CodeType) String() string {
	switch c {
	case CodeRS:
		return "Reed-Solomon Codes"
	case CodeLRC:
		return "Locally Repairable Codes"
	case CodeDRC:
		return "Double Regenerating Codes"
	default:
		return "unknown code type"
	}
}

// PlaceType identifies the stripe-to-disk placement policy (spec.md
// §4.2, original_source/lib/placement.py PLACE_TYPE_* constants).
type PlaceType int

const (
	PlaceFlat PlaceType = iota
	PlaceHierarchical
)

func (p PlaceType) String() string {
	switch p {
	case PlaceFlat:
		return "FLAT"
	case PlaceHierarchical:
		return "HIERARCHICAL"
	default:
		return "unknown place type"
	}
}

// LRCLayout is the fixed wiring of an LRC stripe's n chunk positions
// into data groups, local parities, and global parities. The original
// implementation hardcodes a single 16-position layout; this module
// exposes it as a value so a caller could in principle supply another
// shape, but DefaultLRCLayout reproduces the original exactly (DESIGN.md
// Open Question decision).
type LRCLayout struct {
	// DataGroups[g] lists the chunk positions forming local group g.
	DataGroups [][]int
	// LocalParity[g] is the chunk position of group g's local parity.
	LocalParity []int
	// GlobalParity lists the chunk positions of the global parities.
	GlobalParity []int
}

// DefaultLRCLayout reproduces original_source/lib/placement.py's
// hardcoded schema: n=16, l=2, data groups {0..5} and {8..13}, local
// parities at positions 6 and 14, global parities at 7 and 15.
func DefaultLRCLayout() LRCLayout {
	return LRCLayout{
		DataGroups:   [][]int{{0, 1, 2, 3, 4, 5}, {8, 9, 10, 11, 12, 13}},
		LocalParity:  []int{6, 14},
		GlobalParity: []int{7, 15},
	}
}

// groupOf returns the local-group index owning chunk position pos, or
// -1 if pos is not a data-chunk position in any group.
func (l LRCLayout) groupOf(pos int) int {
	for g, group := range l.DataGroups {
		for _, p := range group {
			if p == pos {
				return g
			}
		}
	}
	return -1
}

func (l LRCLayout) isGlobalParity(pos int) bool {
	for _, p := range l.GlobalParity {
		if p == pos {
			return true
		}
	}
	return false
}

// localParityGroup returns the group index whose local parity sits at
// pos, or -1.
func (l LRCLayout) localParityGroup(pos int) int {
	for g, p := range l.LocalParity {
		if p == pos {
			return g
		}
	}
	return -1
}
