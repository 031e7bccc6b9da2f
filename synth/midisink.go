package synth

import (
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// MidiSink sends events to a hardware or virtual MIDI output port.
type MidiSink struct {
	send func(midi.Message) error
}

// NewMidiSink opens the out port with the given number.
func NewMidiSink(portNum int) (*MidiSink, error) {
	out, err := midi.OutPort(portNum)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open MIDI out port %d", portNum)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, errors.Wrap(err, "could not attach sender to MIDI out port")
	}
	return &MidiSink{send: send}, nil
}

func (m *MidiSink) ProgramSelect(channel, program uint8) {
	m.send(midi.ProgramChange(channel, program))
}

func (m *MidiSink) NoteOn(channel, pitch, velocity uint8) {
	m.send(midi.NoteOn(channel, pitch, velocity))
}

func (m *MidiSink) NoteOff(channel, pitch uint8) {
	m.send(midi.NoteOff(channel, pitch))
}

func (m *MidiSink) AllNotesOff(channel uint8) {
	// CC 123: all notes off
	m.send(midi.ControlChange(channel, 123, 0))
}

func (m *MidiSink) Close() error {
	midi.CloseDriver()
	return nil
}
