package voicing

import (
	"golang.org/x/exp/slices"

	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/note"
	"github.com/chibicitiberiu/chordsheet-engine/util"
)

// Tunings are MIDI values low string to high string.
var Tunings = map[string][6]int{
	"standard": {40, 45, 50, 55, 59, 64}, // E2 A2 D3 G3 B3 E4
	"drop_d":   {38, 45, 50, 55, 59, 64},
	"dadgad":   {38, 45, 50, 55, 57, 62},
	"open_g":   {38, 43, 50, 55, 59, 62},
}

const (
	maxFret     = 12
	maxFretSpan = 4
	muted       = -1
)

// shape is a movable fingering template. The root anchor tells the
// transposer which string/fret carries the root so the whole pattern
// can shift up the neck.
type shape struct {
	pattern    [6]int
	rootString int
	rootFret   int
}

var majorShapes = []shape{
	{pattern: [6]int{muted, 3, 2, 0, 1, 0}, rootString: 1, rootFret: 3},     // open C
	{pattern: [6]int{3, 2, 0, 0, 0, 3}, rootString: 0, rootFret: 3},         // open G
	{pattern: [6]int{muted, muted, 0, 2, 3, 2}, rootString: 2, rootFret: 0}, // open D
	{pattern: [6]int{muted, 0, 2, 2, 2, 0}, rootString: 1, rootFret: 0},     // open A
	{pattern: [6]int{0, 2, 2, 1, 0, 0}, rootString: 0, rootFret: 0},         // open E
	{pattern: [6]int{1, 3, 3, 2, 1, 1}, rootString: 0, rootFret: 1},         // barre F
}

var minorShapes = []shape{
	{pattern: [6]int{muted, 0, 2, 2, 1, 0}, rootString: 1, rootFret: 0},     // Am
	{pattern: [6]int{0, 2, 2, 0, 0, 0}, rootString: 0, rootFret: 0},         // Em
	{pattern: [6]int{muted, muted, 0, 2, 3, 1}, rootString: 2, rootFret: 0}, // Dm
}

var majorTriad = []int{0, 4, 7}
var minorTriad = []int{0, 3, 7}

// Guitar voices chords as fingerings on a six-string neck. Known open
// shapes are tried first; everything else falls back to a per-position
// fret search. Candidates whose lowest sounding pitch is the bass and
// whose fretted span stays playable score best, then voice leading by
// L1 semitone distance decides.
type Guitar struct {
	tuning   [6]int
	previous []uint8
}

func NewGuitar(name string) *Guitar {
	tuning, ok := Tunings[name]
	if !ok {
		tuning = Tunings["standard"]
	}
	return &Guitar{tuning: tuning}
}

// NewGuitarTuning builds an engine for a custom tuning.
func NewGuitarTuning(tuning [6]int) *Guitar {
	return &Guitar{tuning: tuning}
}

func (g *Guitar) Reset() {
	g.previous = nil
}

func (g *Guitar) Voice(rc model.ResolvedChord) model.VoicedChord {
	if rc.Rest || len(rc.Intervals) == 0 {
		return model.VoicedChord{}
	}

	classes := classSet(rc, note.Class(rc.Root))
	bassClass := note.Class(rc.Bass)

	cands := g.shapeCandidates(rc, classes, bassClass)
	if len(cands) == 0 {
		cands = g.searchCandidates(classes)
	}

	best, ok := g.pickBest(cands, bassClass)
	if !ok {
		return model.VoicedChord{}
	}

	var pitches []uint8
	for s, fret := range best {
		if fret == muted {
			continue
		}
		pitches = append(pitches, uint8(g.tuning[s]+fret))
	}
	slices.Sort(pitches)

	velocities := make([]uint8, len(pitches))
	for i := range velocities {
		velocities[i] = constants.GuitarVelocity
	}

	g.previous = append([]uint8(nil), pitches...)
	return model.VoicedChord{Pitches: pitches, Velocities: velocities}
}

// shapeCandidates transposes the template shapes for plain root-bass
// triads. Every sounding pitch is checked against the chord, so a
// shape that stops fitting in an alternate tuning just drops out.
func (g *Guitar) shapeCandidates(rc model.ResolvedChord, classes map[int]bool, bassClass int) [][6]int {
	rootClass := note.Class(rc.Root)
	if bassClass != rootClass {
		// slash chords need a non-root bass; the templates are all
		// root-position shapes
		return nil
	}

	var shapes []shape
	switch {
	case slices.Equal(rc.Intervals, majorTriad):
		shapes = majorShapes
	case slices.Equal(rc.Intervals, minorTriad):
		shapes = minorShapes
	default:
		return nil
	}

	var res [][6]int
	for _, sh := range shapes {
		anchor := (g.tuning[sh.rootString] + sh.rootFret) % 12
		shift := ((rootClass-anchor)%12 + 12) % 12
		if cand, ok := g.transpose(sh, shift, classes); ok {
			res = append(res, cand)
		}
	}
	return res
}

func (g *Guitar) transpose(sh shape, shift int, classes map[int]bool) ([6]int, bool) {
	var cand [6]int
	sounding := 0
	for s := 0; s < 6; s++ {
		fret := sh.pattern[s]
		if fret == muted {
			cand[s] = muted
			continue
		}
		fret += shift
		if fret > maxFret || !classes[(g.tuning[s]+fret)%12] {
			return cand, false
		}
		cand[s] = fret
		sounding++
	}
	return cand, sounding >= 3
}

// searchCandidates scans neck positions. Each base fingering also
// yields variants with the lowest strings muted, so a chord tone on an
// open string does not pin the wrong note under the bass.
func (g *Guitar) searchCandidates(classes map[int]bool) [][6]int {
	var res [][6]int
	for pos := 0; pos <= maxFret-maxFretSpan+1; pos++ {
		cand, ok := g.fingeringAt(pos, classes)
		if !ok {
			continue
		}
		res = append(res, cand)
		for {
			cand, ok = g.muteLowest(cand)
			if !ok {
				break
			}
			res = append(res, cand)
		}
	}
	return res
}

// fingeringAt picks, per string, the lowest fret within the position
// window (open strings always allowed) that lands in the chord.
// Strings with no candidate are muted.
func (g *Guitar) fingeringAt(pos int, classes map[int]bool) ([6]int, bool) {
	var cand [6]int
	sounding := 0
	for s := 0; s < 6; s++ {
		cand[s] = muted
		if classes[(g.tuning[s]+0)%12] {
			cand[s] = 0
			sounding++
			continue
		}
		for fret := pos; fret < pos+maxFretSpan && fret <= maxFret; fret++ {
			if fret == 0 {
				continue
			}
			if classes[(g.tuning[s]+fret)%12] {
				cand[s] = fret
				sounding++
				break
			}
		}
	}
	// fewer than three sounding strings is not a chord shape
	return cand, sounding >= 3
}

// muteLowest silences the lowest-pitch sounding string, keeping at
// least three strings ringing.
func (g *Guitar) muteLowest(cand [6]int) ([6]int, bool) {
	lowString := -1
	lowPitch := 0
	sounding := 0
	for s := 0; s < 6; s++ {
		if cand[s] == muted {
			continue
		}
		sounding++
		pitch := g.tuning[s] + cand[s]
		if lowString == -1 || pitch < lowPitch {
			lowString = s
			lowPitch = pitch
		}
	}
	if sounding <= 3 {
		return cand, false
	}
	cand[lowString] = muted
	return cand, true
}

func (g *Guitar) pickBest(cands [][6]int, bassClass int) ([6]int, bool) {
	var best [6]int
	bestCost := 1 << 30
	found := false
	for _, cand := range cands {
		cost := g.cost(cand, bassClass)
		if cost < bestCost {
			bestCost = cost
			best = cand
			found = true
		}
	}
	return best, found
}

func (g *Guitar) cost(cand [6]int, bassClass int) int {
	cost := 0

	lowest := -1
	minFret, maxFretted := maxFret+1, 0
	var pitches []int
	for s, fret := range cand {
		if fret == muted {
			continue
		}
		pitch := g.tuning[s] + fret
		pitches = append(pitches, pitch)
		if lowest == -1 || pitch < lowest {
			lowest = pitch
		}
		if fret > 0 {
			if fret < minFret {
				minFret = fret
			}
			if fret > maxFretted {
				maxFretted = fret
			}
		}
	}

	if lowest >= 0 && lowest%12 != bassClass {
		cost += 50
	}
	if maxFretted > 0 && minFret <= maxFretted {
		span := maxFretted - minFret + 1
		if span > maxFretSpan {
			cost += 1000
		}
		cost += span * 2
	}

	// voice leading: L1 distance to the previous voicing
	if len(g.previous) > 0 {
		for _, p := range pitches {
			closest := 1 << 30
			for _, prev := range g.previous {
				closest = util.Min(closest, util.Abs(p-int(prev)))
			}
			cost += closest
		}
	}

	return cost
}
