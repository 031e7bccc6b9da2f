package synth

import (
	"encoding/binary"
	"math"
	"os"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

const sampleRate = 44100

// renderBlock keeps the render loop aligned with the synthesizer's
// internal block size.
const renderBlock = 1024

// SoundFontSink renders through a software synthesizer so playback
// works without MIDI hardware. Events mutate the synthesizer under a
// lock; the audio stream pulls rendered blocks continuously.
type SoundFontSink struct {
	mu     sync.Mutex
	synth  *meltysynth.Synthesizer
	ctx    *oto.Context
	player *oto.Player
}

func NewSoundFontSink(soundFontPath string) (*SoundFontSink, error) {
	f, err := os.Open(soundFontPath)
	if err != nil {
		return nil, errors.Wrap(err, "could not open soundfont")
	}
	defer f.Close()

	sf, err := meltysynth.NewSoundFont(f)
	if err != nil {
		return nil, errors.Wrap(err, "could not load soundfont")
	}

	settings := meltysynth.NewSynthesizerSettings(sampleRate)
	settings.BlockSize = renderBlock
	syn, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, errors.Wrap(err, "could not create synthesizer")
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "could not open audio device")
	}
	<-ready

	s := &SoundFontSink{synth: syn, ctx: ctx}
	s.player = ctx.NewPlayer(&synthStream{sink: s})
	s.player.Play()
	return s, nil
}

// synthStream feeds the audio device from the synthesizer.
type synthStream struct {
	sink *SoundFontSink
	left [renderBlock]float32
	rght [renderBlock]float32
}

func (st *synthStream) Read(p []byte) (int, error) {
	// 8 bytes per stereo float32 frame
	frames := len(p) / 8
	if frames > renderBlock {
		frames = renderBlock
	}
	if frames == 0 {
		return 0, nil
	}

	st.sink.mu.Lock()
	st.sink.synth.Render(st.left[:frames], st.rght[:frames])
	st.sink.mu.Unlock()

	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint32(p[i*8:], math.Float32bits(st.left[i]))
		binary.LittleEndian.PutUint32(p[i*8+4:], math.Float32bits(st.rght[i]))
	}
	return frames * 8, nil
}

func (s *SoundFontSink) ProgramSelect(channel, program uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// 0xC0: program change
	s.synth.ProcessMidiMessage(int32(channel), 0xC0, int32(program), 0)
}

func (s *SoundFontSink) NoteOn(channel, pitch, velocity uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synth.NoteOn(int32(channel), int32(pitch), int32(velocity))
}

func (s *SoundFontSink) NoteOff(channel, pitch uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synth.NoteOff(int32(channel), int32(pitch))
}

func (s *SoundFontSink) AllNotesOff(channel uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// CC 123: all notes off
	s.synth.ProcessMidiMessage(int32(channel), 0xB0, 123, 0)
}

func (s *SoundFontSink) Close() error {
	if s.player != nil {
		return s.player.Close()
	}
	return nil
}
