package constants

import (
	"os"
	"strconv"
)

func GetSoundFontPath() string {
	path := os.Getenv("SOUNDFONT_PATH")
	if path != "" {
		return path
	}
	return "./GeneralUser-GS.sf2"
}

func GetMediaDir() string {
	path := os.Getenv("MEDIA_PATH")
	if path != "" {
		return path
	}
	return "."
}

// GetMidiPort reads the default MIDI port number, overridable per
// invocation with --port.
func GetMidiPort() int {
	port, err := strconv.Atoi(os.Getenv("CHORDSHEET_MIDI_PORT"))
	if err != nil {
		return 0
	}
	return port
}

func GetSongbookTable() string {
	table := os.Getenv("SONGBOOK_TABLE")
	if table != "" {
		return table
	}
	return "chordsheet-songbook"
}

const (
	DefaultBPM = 120
	MinBPM     = 60
	MaxBPM     = 240

	DefaultTimeSigNum  = 4
	DefaultTimeSigUnit = 4

	// Octave placement for piano voicings.
	ChordOctave = 4
	BassOctave  = 2

	BassVelocity   = 110
	ChordVelocity  = 90
	GuitarVelocity = 95

	PitchedChannel = 0
	// Reserved for metronome/percussion use.
	DrumChannel = 9

	DefaultLoopCount = 2
	MaxLoopCount     = 100

	// Scheduler sleeps are segmented so commands land within this
	// window.
	TickMillis = 10

	EventBufferSize = 256
)
