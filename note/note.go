// Package note converts between pitch names and MIDI numbers.
// Middle C (C4) is MIDI 60.
package note

import (
	"fmt"

	"github.com/chibicitiberiu/chordsheet-engine/model"
)

// letterClass maps note letters to semitone offsets within an octave.
var letterClass = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// sharpNames spells each pitch class with sharps, the default for
// display when no key context prefers flats.
var sharpNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

var flatNames = [12]string{
	"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B",
}

// Class returns the pitch class 0-11 of a root.
func Class(r model.Root) int {
	base, ok := letterClass[r.Letter]
	if !ok {
		return 0
	}
	return ((base+int(r.Accidental))%12 + 12) % 12
}

// Midi places a root in the given octave. C4 = 60, so octave n starts
// at MIDI (n+1)*12.
func Midi(r model.Root, octave int) uint8 {
	n := (octave+1)*12 + Class(r)
	if n < 0 {
		n = 0
	}
	if n > 127 {
		n = 127
	}
	return uint8(n)
}

// MidiAdjusted is Midi with the low-register adjustment: at octave 3
// and below, F G A B are raised one octave to keep bass notes out of
// the muddy bottom range.
func MidiAdjusted(r model.Root, octave int) uint8 {
	switch r.Letter {
	case 'F', 'G', 'A', 'B':
		if octave <= 3 {
			octave++
		}
	}
	return Midi(r, octave)
}

// ClassName spells a pitch class, preferring flats when asked.
func ClassName(class int, flat bool) string {
	class = (class%12 + 12) % 12
	if flat {
		return flatNames[class]
	}
	return sharpNames[class]
}

// Name renders a root back to text, e.g. {G, Sharp} -> "G#".
func Name(r model.Root) string {
	switch r.Accidental {
	case model.Sharp:
		return string(r.Letter) + "#"
	case model.Flat:
		return string(r.Letter) + "b"
	default:
		return string(r.Letter)
	}
}

// RootFromClass spells a pitch class as a Root, sharps preferred.
func RootFromClass(class int) model.Root {
	class = (class%12 + 12) % 12
	name := sharpNames[class]
	r := model.Root{Letter: name[0]}
	if len(name) > 1 {
		r.Accidental = model.Sharp
	}
	return r
}

// ParseRoot reads a letter plus optional accidental from the start of
// s and returns the root and the number of bytes consumed.
func ParseRoot(s string) (model.Root, int, error) {
	if len(s) == 0 {
		return model.Root{}, 0, fmt.Errorf("empty note")
	}
	letter := s[0]
	if letter < 'A' || letter > 'G' {
		return model.Root{}, 0, fmt.Errorf("unknown note letter %q", string(letter))
	}
	r := model.Root{Letter: letter}
	n := 1
	if len(s) > 1 {
		switch s[1] {
		case '#':
			r.Accidental = model.Sharp
			n = 2
		case 'b':
			r.Accidental = model.Flat
			n = 2
		}
	}
	return r, n, nil
}
