package notation

import (
	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/note"
)

// Scale degree offsets in semitones.
var majorScale = [7]int{0, 2, 4, 5, 7, 9, 11}
var minorScale = [7]int{0, 2, 3, 5, 7, 8, 10}

func scaleOf(key model.Key) [7]int {
	if key.Minor {
		return minorScale
	}
	return majorScale
}

// degreeClass resolves a scale degree (1-7, with accidental) to a
// pitch class in the given key.
func degreeClass(key model.Key, degree int, acc model.Accidental) int {
	scale := scaleOf(key)
	c := note.Class(key.Root) + scale[degree-1] + int(acc)
	return (c%12 + 12) % 12
}

// EvalRoman rewrites a roman symbol as an absolute one in the given
// key. Non-roman symbols come back unchanged.
func EvalRoman(sym *model.ChordSymbol, key model.Key) *model.ChordSymbol {
	if !sym.IsRoman() {
		return sym
	}

	out := *sym
	out.Degree = 0
	out.DegreeAccidental = model.Natural
	out.BassDegree = 0
	out.BassDegreeAccidental = model.Natural

	out.Root = note.RootFromClass(degreeClass(key, sym.Degree, sym.DegreeAccidental))
	if sym.BassDegree > 0 {
		bass := note.RootFromClass(degreeClass(key, sym.BassDegree, sym.BassDegreeAccidental))
		out.Bass = &bass
	}
	return &out
}

// ToRoman converts an absolute symbol to roman form in the given key,
// when its root lands within a semitone of a scale degree. Returns
// nil when no degree fits.
func ToRoman(sym *model.ChordSymbol, key model.Key) *model.ChordSymbol {
	if sym.Rest || sym.IsRoman() {
		return sym
	}

	degree, acc, ok := classDegree(key, note.Class(sym.Root))
	if !ok {
		return nil
	}

	out := *sym
	out.Root = model.Root{}
	out.Degree = degree
	out.DegreeAccidental = acc
	if sym.Bass != nil {
		bdeg, bacc, bok := classDegree(key, note.Class(*sym.Bass))
		if !bok {
			return nil
		}
		out.Bass = nil
		out.BassDegree = bdeg
		out.BassDegreeAccidental = bacc
	}
	return &out
}

func classDegree(key model.Key, class int) (int, model.Accidental, bool) {
	scale := scaleOf(key)
	base := note.Class(key.Root)
	// exact degree first, then flattened/sharpened neighbors
	for d := 0; d < 7; d++ {
		if (base+scale[d])%12 == class {
			return d + 1, model.Natural, true
		}
	}
	for d := 0; d < 7; d++ {
		if ((base+scale[d])%12+11)%12 == class {
			return d + 1, model.Flat, true
		}
		if (base+scale[d]+1)%12 == class {
			return d + 1, model.Sharp, true
		}
	}
	return 0, model.Natural, false
}

// Resolve evaluates roman forms against the key and expands the
// symbol into a playable chord. Rests resolve with no intervals.
func Resolve(sym *model.ChordSymbol, key model.Key) model.ResolvedChord {
	abs := EvalRoman(sym, key)

	res := model.ResolvedChord{
		Name:      chord.Serialize(stripBeats(abs)),
		Rest:      abs.Rest,
		Root:      abs.Root,
		Bass:      abs.Root,
		Intervals: chord.Intervals(abs),
	}
	if abs.Bass != nil {
		res.Bass = *abs.Bass
	}
	return res
}

func stripBeats(sym *model.ChordSymbol) *model.ChordSymbol {
	if sym.Beats == 0 {
		return sym
	}
	out := *sym
	out.Beats = 0
	return &out
}
