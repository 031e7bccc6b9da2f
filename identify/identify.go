// Package identify names chords from live MIDI input: the reverse of
// the chord parser.
package identify

import (
	"github.com/chibicitiberiu/chordsheet-engine/note"
	"github.com/chibicitiberiu/chordsheet-engine/util"
)

type template struct {
	suffix    string
	intervals []int
}

// Pitch-class templates relative to the root, triads first. Sets must
// match exactly, so the order does not decide which name wins.
var templates = []template{
	{"", []int{0, 4, 7}},
	{"m", []int{0, 3, 7}},
	{"dim", []int{0, 3, 6}},
	{"aug", []int{0, 4, 8}},
	{"sus2", []int{0, 2, 7}},
	{"sus4", []int{0, 5, 7}},
	{"5", []int{0, 7}},
	{"7", []int{0, 4, 7, 10}},
	{"maj7", []int{0, 4, 7, 11}},
	{"m7", []int{0, 3, 7, 10}},
	{"dim7", []int{0, 3, 6, 9}},
	{"m7b5", []int{0, 3, 6, 10}},
	{"mM7", []int{0, 3, 7, 11}},
	{"6", []int{0, 4, 7, 9}},
	{"m6", []int{0, 3, 7, 9}},
	{"9", []int{0, 2, 4, 7, 10}},
	{"maj9", []int{0, 2, 4, 7, 11}},
	{"m9", []int{0, 2, 3, 7, 10}},
	{"add9", []int{0, 2, 4, 7}},
	{"madd9", []int{0, 2, 3, 7}},
}

// Candidates names the chords a set of pitches could be. The lowest
// sounding pitch decides whether a slash form is added. Results are
// ordered by root pitch class.
func Candidates(pitches []uint8) []string {
	if len(pitches) < 2 {
		return nil
	}

	classes := make(map[int]bool)
	lowest := int(pitches[0])
	for _, p := range pitches {
		classes[int(p)%12] = true
		if int(p) < lowest {
			lowest = int(p)
		}
	}
	bassClass := lowest % 12

	var res []string
	for _, root := range util.GetKeysSorted(classes) {
		for _, t := range templates {
			if !matches(classes, root, t.intervals) {
				continue
			}
			name := note.ClassName(root, false) + t.suffix
			if bassClass != root {
				name += "/" + note.ClassName(bassClass, false)
			}
			res = append(res, name)
		}
	}
	return res
}

func matches(classes map[int]bool, root int, intervals []int) bool {
	if len(classes) != len(intervals) {
		return false
	}
	for _, iv := range intervals {
		if !classes[(root+iv)%12] {
			return false
		}
	}
	return true
}
