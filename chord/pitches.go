package chord

import (
	"golang.org/x/exp/slices"

	"github.com/chibicitiberiu/chordsheet-engine/model"
)

// addInterval maps add degrees to semitone offsets from the root.
var addInterval = map[int]int{
	2: 2, 4: 5, 6: 9, 9: 14, 11: 17, 13: 21,
}

// degreeInterval maps alterable degrees to their unaltered offsets.
var degreeInterval = map[int]int{
	5: 7, 9: 14, 11: 17, 13: 21,
}

// Intervals expands a symbol into semitone offsets from the root,
// ascending and deduplicated. Rests expand to nothing.
func Intervals(sym *model.ChordSymbol) []int {
	if sym.Rest {
		return nil
	}

	set := map[int]bool{0: true}

	// third (or its replacement) and fifth
	switch sym.Quality {
	case model.Minor:
		set[3] = true
		set[7] = true
	case model.Dim:
		set[3] = true
		set[6] = true
	case model.Aug:
		set[4] = true
		set[8] = true
	case model.Sus2:
		set[2] = true
		set[7] = true
	case model.Sus4:
		set[5] = true
		set[7] = true
	case model.Power:
		set[7] = true
	default:
		set[4] = true
		set[7] = true
	}

	switch sym.Seventh {
	case model.Dom7, model.Min7:
		set[10] = true
	case model.Maj7, model.MinMaj7:
		set[11] = true
	case model.Dim7:
		set[9] = true
	case model.HalfDim7:
		// half-diminished: minor third, flat five, minor seventh
		delete(set, 7)
		set[6] = true
		set[10] = true
	}

	switch sym.Extension {
	case model.Ext9:
		set[14] = true
	case model.Ext11:
		set[14] = true
		set[17] = true
	case model.Ext13:
		set[14] = true
		set[21] = true
	}

	for _, n := range sym.AddNotes {
		if iv, ok := addInterval[n]; ok {
			set[iv] = true
		}
	}

	// alterations replace the unaltered interval of the same degree
	for _, alt := range sym.Alterations {
		base, ok := degreeInterval[alt.Degree]
		if !ok {
			continue
		}
		delete(set, base)
		set[base+int(alt.Delta)] = true
	}

	res := make([]int, 0, len(set))
	for iv := range set {
		res = append(res, iv)
	}
	slices.Sort(res)
	return res
}
