// Package voicing assigns concrete MIDI pitches to resolved chords,
// leading voices against whatever was played before.
package voicing

import (
	"strings"

	"github.com/chibicitiberiu/chordsheet-engine/model"
)

// Engine turns resolved chords into voiced chords. Engines are
// stateful: each Voice call leads against the previous one. Rests do
// not disturb the state.
type Engine interface {
	Voice(rc model.ResolvedChord) model.VoicedChord
	Reset()
}

// New builds an engine from a voicing spec string: "piano",
// "guitar:standard", "guitar:drop_d", "guitar:dadgad", "guitar:open_g".
// Unknown specs fall back to piano.
func New(spec string) Engine {
	if strings.HasPrefix(spec, "guitar") {
		tuning := "standard"
		if _, rest, found := strings.Cut(spec, ":"); found {
			tuning = rest
		}
		return NewGuitar(tuning)
	}
	return NewPiano()
}

func classSet(rc model.ResolvedChord, rootClass int) map[int]bool {
	set := make(map[int]bool, len(rc.Intervals))
	for _, iv := range rc.Intervals {
		set[(rootClass+iv)%12] = true
	}
	return set
}
