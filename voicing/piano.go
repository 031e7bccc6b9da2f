package voicing

import (
	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/note"
	"github.com/chibicitiberiu/chordsheet-engine/util"
)

// Piano keeps chord tones in a window around octaves 4-5 and moves
// each voice to the octave closest to the previous voicing.
type Piano struct {
	previous []uint8
}

func NewPiano() *Piano {
	return &Piano{}
}

func (p *Piano) Reset() {
	p.previous = nil
}

// window for chord tones, three octaves from C3 to C6
const (
	pianoLow  = 48
	pianoHigh = 84
)

func (p *Piano) Voice(rc model.ResolvedChord) model.VoicedChord {
	if rc.Rest || len(rc.Intervals) == 0 {
		return model.VoicedChord{}
	}

	rootPitch := int(note.Midi(rc.Root, constants.ChordOctave))

	var pitches []uint8
	used := make(map[int]bool)
	for _, iv := range rc.Intervals {
		target := rootPitch + iv
		pitch := p.leadVoice(target)
		// two degrees can collapse onto one key after leading
		if used[pitch] {
			continue
		}
		used[pitch] = true
		pitches = append(pitches, uint8(pitch))
	}

	velocities := make([]uint8, len(pitches))
	for i := range velocities {
		velocities[i] = constants.ChordVelocity
	}

	voiced := model.VoicedChord{
		Bass:         note.MidiAdjusted(rc.Bass, constants.BassOctave),
		HasBass:      true,
		Pitches:      pitches,
		Velocities:   velocities,
		BassVelocity: constants.BassVelocity,
	}
	p.previous = append([]uint8(nil), pitches...)
	return voiced
}

// leadVoice picks the octave placement of target's pitch class that
// sits closest to any previously played pitch. Ties go to the lower
// octave. Without history the initial placement stands, moved by whole
// octaves into the window when it falls outside.
func (p *Piano) leadVoice(target int) int {
	if len(p.previous) == 0 {
		for target > pianoHigh {
			target -= 12
		}
		for target < pianoLow {
			target += 12
		}
		return target
	}

	class := ((target % 12) + 12) % 12
	best := -1
	bestCost := 1 << 30
	for pitch := pianoLow + class; pitch <= pianoHigh; pitch += 12 {
		cost := 1 << 30
		for _, prev := range p.previous {
			d := util.Abs(pitch - int(prev))
			if d < cost {
				cost = d
			}
		}
		// strict less keeps the lower octave on ties
		if cost < bestCost {
			bestCost = cost
			best = pitch
		}
	}
	return best
}
