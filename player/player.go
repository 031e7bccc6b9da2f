// Package player executes playback plans on a dedicated worker
// goroutine. The worker owns all player state; the UI talks to it
// through a command channel and reads published snapshots.
package player

import (
	"time"

	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/plan"
	"github.com/chibicitiberiu/chordsheet-engine/synth"
	"github.com/chibicitiberiu/chordsheet-engine/voicing"
)

type cmdKind uint8

const (
	cmdStart cmdKind = iota
	cmdPause
	cmdResume
	cmdStop
	cmdPlaySingle
	cmdSetInitialTempo
	cmdSetVoicing
	cmdShutdown
)

type command struct {
	kind cmdKind

	plan      *model.Plan
	startStep int
	cfg       model.PlayerConfig

	chord model.ResolvedChord
	beats float64

	bpm     float64
	voicing string
}

// Player is the public handle. Commands are processed in FIFO order;
// Pause and Stop take effect within the scheduler tick (10 ms).
type Player struct {
	cmds   chan command
	buffer *EventBuffer
	done   chan struct{}

	// Callbacks are invoked on the worker goroutine and must not
	// block. Set them before issuing commands.
	HighlightFunc func(*model.Span)
	StateFunc     func(model.StateSnapshot)
}

func New(sink synth.Sink, cfg model.PlayerConfig) *Player {
	p := &Player{
		cmds:   make(chan command, 16),
		buffer: NewEventBuffer(constants.EventBufferSize, sink),
		done:   make(chan struct{}),
	}
	go p.run(cfg)
	return p
}

func (p *Player) Start(pl *model.Plan, startStep int, cfg model.PlayerConfig) {
	p.cmds <- command{kind: cmdStart, plan: pl, startStep: startStep, cfg: cfg}
}

func (p *Player) Pause()  { p.cmds <- command{kind: cmdPause} }
func (p *Player) Resume() { p.cmds <- command{kind: cmdResume} }
func (p *Player) Stop()   { p.cmds <- command{kind: cmdStop} }

// PlaySingle plays one chord in the foreground, voice-led against
// whatever played before. It is a no-op while a song is playing.
func (p *Player) PlaySingle(rc model.ResolvedChord, beats float64) {
	p.cmds <- command{kind: cmdPlaySingle, chord: rc, beats: beats}
}

func (p *Player) SetInitialTempo(bpm float64) {
	p.cmds <- command{kind: cmdSetInitialTempo, bpm: bpm}
}

func (p *Player) SetVoicing(spec string) {
	p.cmds <- command{kind: cmdSetVoicing, voicing: spec}
}

// Shutdown stops playback, drains the buffer and ends the worker.
func (p *Player) Shutdown() {
	p.cmds <- command{kind: cmdShutdown}
	<-p.done
	p.buffer.Close()
}

// worker state, owned exclusively by the run goroutine
type worker struct {
	p *Player

	state  model.PlayerState
	plan   *model.Plan
	cursor int
	cfg    model.PlayerConfig

	initialBPM float64
	bpm        float64
	timeSig    model.TimeSig
	key        model.Key

	engine voicing.Engine

	// held maps sounding pitch to its velocity
	held map[uint8]uint8
	// pausedVoicing remembers what a pause released so resume can
	// re-attack it, even if clicks played other chords in between
	pausedVoicing map[uint8]uint8
	shutdown      bool
	beatsDone     float64
	totalBars     int
	span          *model.Span
	chordName     string
}

func (p *Player) run(cfg model.PlayerConfig) {
	defer close(p.done)

	ncfg := normalizeConfig(cfg)
	w := &worker{
		p:          p,
		cfg:        ncfg,
		initialBPM: ncfg.InitialBPM,
		bpm:        ncfg.InitialBPM,
		timeSig:    ncfg.TimeSig,
		key:        ncfg.Key,
		engine:     voicing.New(ncfg.Voicing),
		held:       make(map[uint8]uint8),
	}

	for {
		if w.shutdown {
			return
		}
		if w.state == model.Playing && w.plan != nil && w.cursor < len(w.plan.Steps) {
			select {
			case c := <-p.cmds:
				if w.handle(c) {
					return
				}
			default:
				w.step()
			}
			continue
		}

		if w.state == model.Playing {
			// ran off the end of the plan
			w.finish()
			continue
		}

		c := <-p.cmds
		if w.handle(c) {
			return
		}
	}
}

func normalizeConfig(cfg model.PlayerConfig) model.PlayerConfig {
	if cfg.TimeSig.Num == 0 {
		cfg.TimeSig = model.TimeSig{Num: constants.DefaultTimeSigNum, Unit: constants.DefaultTimeSigUnit}
	}
	if cfg.InitialBPM <= 0 {
		cfg.InitialBPM = constants.DefaultBPM
	}
	return cfg
}

// handle processes one command; true means shutdown.
func (w *worker) handle(c command) bool {
	switch c.kind {
	case cmdStart:
		w.start(c)
	case cmdPause:
		w.pause()
	case cmdResume:
		// resume outside a step sleep: nothing suspended, just flip
		if w.state == model.Paused {
			w.state = model.Playing
			w.reattack()
			w.publish()
		}
	case cmdStop:
		w.stop()
	case cmdPlaySingle:
		w.playSingle(c.chord, c.beats)
	case cmdSetInitialTempo:
		if c.bpm > 0 {
			w.initialBPM = c.bpm
			if w.state == model.Stopped {
				w.bpm = c.bpm
			}
		}
	case cmdSetVoicing:
		w.cfg.Voicing = c.voicing
		w.engine = voicing.New(c.voicing)
	case cmdShutdown:
		w.stop()
		w.shutdown = true
		return true
	}
	return false
}

func (w *worker) start(c command) {
	if w.state != model.Stopped {
		w.releaseAll()
	}

	w.cfg = normalizeConfig(c.cfg)
	w.plan = c.plan
	w.cursor = c.startStep
	if w.cursor < 0 || w.cursor > len(c.plan.Steps) {
		w.cursor = 0
	}
	w.initialBPM = w.cfg.InitialBPM
	w.bpm = w.initialBPM
	w.timeSig = w.cfg.TimeSig
	w.key = w.cfg.Key
	w.engine = voicing.New(w.cfg.Voicing)
	w.beatsDone = 0
	w.totalBars = 1
	if n := int(c.plan.TotalBeats) / w.timeSig.Num; n > 1 {
		w.totalBars = n
	}

	w.p.buffer.Push(synth.Event{Kind: synth.EvProgram, Channel: w.cfg.Channel, Pitch: w.cfg.Program})
	w.state = model.Playing
	w.publish()
}

func (w *worker) step() {
	step := w.plan.Steps[w.cursor]
	w.cursor++

	if step.Kind == model.StepContext {
		if step.Tempo != nil {
			w.bpm, w.initialBPM = plan.ApplyTempo(*step.Tempo, w.bpm, w.initialBPM)
		}
		if step.TimeSig != nil {
			w.timeSig = *step.TimeSig
		}
		if step.Key != nil {
			w.key = *step.Key
		}
		w.publish()
		return
	}

	voiced := w.voice(step.Chord)
	w.transition(voiced)

	span := step.Span
	w.span = &span
	w.chordName = step.Chord.Name
	if step.Chord.Rest {
		w.chordName = ""
	}
	if w.p.HighlightFunc != nil {
		w.p.HighlightFunc(w.span)
	}
	w.publish()

	// the tempo in effect now governs the whole step
	planBefore := w.plan
	w.sleepBeats(step.Beats)
	if w.state != model.Stopped && w.plan == planBefore {
		w.beatsDone += step.Beats
	}
}

func (w *worker) voice(rc model.ResolvedChord) model.VoicedChord {
	if rc.Rest {
		return model.VoicedChord{}
	}
	return w.engine.Voice(rc)
}

// transition releases pitches the new voicing no longer needs and
// attacks the new ones, holding common tones for legato.
func (w *worker) transition(voiced model.VoicedChord) {
	want := make(map[uint8]uint8)
	for i, pitch := range voiced.Pitches {
		vel := uint8(constants.ChordVelocity)
		if i < len(voiced.Velocities) {
			vel = voiced.Velocities[i]
		}
		want[pitch] = vel
	}
	if voiced.HasBass {
		want[voiced.Bass] = voiced.BassVelocity
	}

	for pitch := range w.held {
		if _, ok := want[pitch]; !ok {
			w.p.buffer.Push(synth.Event{Kind: synth.EvNoteOff, Channel: w.cfg.Channel, Pitch: pitch})
			delete(w.held, pitch)
		}
	}
	for pitch, vel := range want {
		if _, ok := w.held[pitch]; !ok {
			w.p.buffer.Push(synth.Event{Kind: synth.EvNoteOn, Channel: w.cfg.Channel, Pitch: pitch, Velocity: vel})
			w.held[pitch] = vel
		}
	}
}

// sleepBeats waits out a step's duration in ticks so Pause and Stop
// land within 10 ms. Remaining time is carried in beats, so a resume
// continues at the tempo current then.
func (w *worker) sleepBeats(beats float64) {
	remaining := beats
	for remaining > 1e-9 {
		if w.state != model.Playing {
			// paused: block until resumed, stopped or shut down
			c := <-w.p.cmds
			if w.handle(c) || w.state == model.Stopped {
				return
			}
			if c.kind == cmdStart {
				return
			}
			continue
		}

		secPerBeat := 60.0 / w.bpm
		tick := time.Duration(constants.TickMillis) * time.Millisecond
		stepTime := time.Duration(remaining * secPerBeat * float64(time.Second))
		if stepTime < tick {
			tick = stepTime
		}

		select {
		case c := <-w.p.cmds:
			if w.handle(c) || w.state == model.Stopped {
				return
			}
			// a restart abandons the in-flight step
			if c.kind == cmdStart {
				return
			}
		case <-time.After(tick):
			remaining -= tick.Seconds() / secPerBeat
		}
	}
}

func (w *worker) pause() {
	if w.state != model.Playing {
		return
	}
	w.state = model.Paused
	if w.cfg.ReleaseOnPause {
		w.pausedVoicing = w.held
		w.held = make(map[uint8]uint8)
		for pitch := range w.pausedVoicing {
			w.p.buffer.Push(synth.Event{Kind: synth.EvNoteOff, Channel: w.cfg.Channel, Pitch: pitch})
		}
	}
	w.publish()
}

// reattack re-issues the current step's voicing after a pause that
// released it.
func (w *worker) reattack() {
	if w.pausedVoicing == nil {
		return
	}
	w.releaseHeld()
	for pitch, vel := range w.pausedVoicing {
		w.p.buffer.Push(synth.Event{Kind: synth.EvNoteOn, Channel: w.cfg.Channel, Pitch: pitch, Velocity: vel})
		w.held[pitch] = vel
	}
	w.pausedVoicing = nil
}

func (w *worker) stop() {
	if w.state == model.Stopped {
		return
	}
	w.releaseAll()
	w.state = model.Stopped
	w.cursor = 0
	w.span = nil
	w.chordName = ""
	w.beatsDone = 0
	if w.p.HighlightFunc != nil {
		w.p.HighlightFunc(nil)
	}
	w.publish()
}

// releaseAll silences everything and waits for the sink to see it.
func (w *worker) releaseAll() {
	w.pausedVoicing = nil
	for pitch := range w.held {
		w.p.buffer.Push(synth.Event{Kind: synth.EvNoteOff, Channel: w.cfg.Channel, Pitch: pitch})
		delete(w.held, pitch)
	}
	w.p.buffer.Push(synth.Event{Kind: synth.EvAllOff, Channel: w.cfg.Channel})
	w.p.buffer.Flush()
}

func (w *worker) finish() {
	w.releaseAll()
	w.state = model.Stopped
	w.cursor = 0
	w.span = nil
	w.chordName = ""
	if w.p.HighlightFunc != nil {
		w.p.HighlightFunc(nil)
	}
	w.publish()
}

// playSingle voices and sounds one chord in the foreground, keeping
// the voice-leading state for the next click.
func (w *worker) playSingle(rc model.ResolvedChord, beats float64) {
	if w.state == model.Playing {
		return
	}
	if beats <= 0 {
		beats = float64(w.timeSig.Num)
	}

	prior := w.state
	voiced := w.voice(rc)
	w.transition(voiced)
	w.chordName = rc.Name
	w.publish()

	secPerBeat := 60.0 / w.bpm
	deadline := time.After(time.Duration(beats * secPerBeat * float64(time.Second)))
wait:
	for {
		select {
		case c := <-w.p.cmds:
			// a new click or stop cuts this one short
			if c.kind == cmdStop || c.kind == cmdPlaySingle || c.kind == cmdStart {
				w.releaseHeld()
				w.handle(c)
				return
			}
			if w.handle(c) {
				return
			}
		case <-deadline:
			break wait
		}
	}
	w.releaseHeld()
	w.state = prior
	w.chordName = ""
	w.publish()
}

func (w *worker) releaseHeld() {
	for pitch := range w.held {
		w.p.buffer.Push(synth.Event{Kind: synth.EvNoteOff, Channel: w.cfg.Channel, Pitch: pitch})
		delete(w.held, pitch)
	}
}

func (w *worker) publish() {
	if w.p.StateFunc == nil {
		return
	}
	bar := 1
	if w.timeSig.Num > 0 {
		bar = int(w.beatsDone)/w.timeSig.Num + 1
	}
	snap := model.StateSnapshot{
		State:     w.state,
		BPM:       w.bpm,
		TimeSig:   w.timeSig,
		Key:       w.key,
		ChordName: w.chordName,
		Bar:       bar,
		TotalBars: w.totalBars,
		Span:      w.span,
	}
	if w.state == model.Stopped {
		snap.Span = nil
		snap.Bar = 0
	}
	w.p.StateFunc(snap)
}
