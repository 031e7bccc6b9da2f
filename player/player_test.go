package player

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/plan"
	"github.com/chibicitiberiu/chordsheet-engine/song"
	"github.com/chibicitiberiu/chordsheet-engine/synth"
)

func testConfig() model.PlayerConfig {
	return model.PlayerConfig{
		InitialBPM:     240,
		TimeSig:        model.TimeSig{Num: 4, Unit: 4},
		Key:            model.Key{Root: model.Root{Letter: 'C'}},
		Voicing:        "piano",
		ReleaseOnPause: true,
	}
}

func buildPlan(text string, cfg model.PlayerConfig) *model.Plan {
	prog := song.NewParser(chord.American).Parse(text)
	init := model.Snapshot{BPM: cfg.InitialBPM, TimeSig: cfg.TimeSig, Key: cfg.Key}
	return plan.Build(prog, 0, init)
}

type stateLog struct {
	mu    sync.Mutex
	snaps []model.StateSnapshot
}

func (l *stateLog) add(s model.StateSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snaps = append(l.snaps, s)
}

func (l *stateLog) last() model.StateSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.snaps) == 0 {
		return model.StateSnapshot{}
	}
	return l.snaps[len(l.snaps)-1]
}

func (l *stateLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.snaps)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// groups splits the recorded events into runs of the same kind so the
// unordered pitches within one phase can be compared as sets.
func groups(events []synth.Event) [][]synth.Event {
	var res [][]synth.Event
	for _, e := range events {
		if len(res) > 0 && res[len(res)-1][0].Kind == e.Kind {
			res[len(res)-1] = append(res[len(res)-1], e)
			continue
		}
		res = append(res, []synth.Event{e})
	}
	return res
}

func pitchesOf(events []synth.Event) []uint8 {
	var res []uint8
	for _, e := range events {
		res = append(res, e.Pitch)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func TestPlaybackEventOrdering(t *testing.T) {
	rec := synth.NewRecorder()
	cfg := testConfig()
	p := New(rec, cfg)
	defer p.Shutdown()

	log := &stateLog{}
	p.StateFunc = log.add

	p.Start(buildPlan("C*0.2  Am*0.2", cfg), 0, cfg)
	waitFor(t, 5*time.Second, func() bool {
		return log.last().State == model.Stopped && log.count() > 2
	})

	gs := groups(rec.Events())
	assert := assert.New(t)

	// program select, C on, release of dropped tones, Am on, final
	// release, all notes off
	assert.Equal(6, len(gs))
	assert.Equal(synth.EvProgram, gs[0][0].Kind)

	assert.Equal(synth.EvNoteOn, gs[1][0].Kind)
	assert.Equal([]uint8{36, 60, 64, 67}, pitchesOf(gs[1]))

	// C4 and E4 are held into Am: only bass and G4 are released
	assert.Equal(synth.EvNoteOff, gs[2][0].Kind)
	assert.Equal([]uint8{36, 67}, pitchesOf(gs[2]))

	assert.Equal(synth.EvNoteOn, gs[3][0].Kind)
	assert.Equal([]uint8{57, 69}, pitchesOf(gs[3]))

	assert.Equal(synth.EvNoteOff, gs[4][0].Kind)
	assert.Equal(synth.EvAllOff, gs[5][0].Kind)
}

func TestStopLeavesNoHangingNotes(t *testing.T) {
	rec := synth.NewRecorder()
	cfg := testConfig()
	cfg.InitialBPM = 60
	p := New(rec, cfg)
	defer p.Shutdown()

	log := &stateLog{}
	p.StateFunc = log.add

	// a 100-beat chord would play for 100 seconds
	p.Start(buildPlan("C*100", cfg), 0, cfg)
	waitFor(t, time.Second, func() bool { return log.last().State == model.Playing })

	start := time.Now()
	p.Stop()
	waitFor(t, time.Second, func() bool { return log.last().State == model.Stopped })

	assert := assert.New(t)
	assert.Less(time.Since(start), 200*time.Millisecond)
	assert.Empty(rec.Held())
}

func TestPauseReleasesAndResumeReattacks(t *testing.T) {
	rec := synth.NewRecorder()
	cfg := testConfig()
	cfg.InitialBPM = 60
	p := New(rec, cfg)
	defer p.Shutdown()

	log := &stateLog{}
	p.StateFunc = log.add

	p.Start(buildPlan("C*100", cfg), 0, cfg)
	waitFor(t, time.Second, func() bool { return log.last().State == model.Playing })

	p.Pause()
	waitFor(t, time.Second, func() bool { return log.last().State == model.Paused })
	waitFor(t, time.Second, func() bool { return len(rec.Held()) == 0 })

	p.Resume()
	waitFor(t, time.Second, func() bool { return log.last().State == model.Playing })
	waitFor(t, time.Second, func() bool { return len(rec.Held()) == 1 })

	held := rec.Held()
	assert.New(t).Equal([]uint8{36, 60, 64, 67}, sorted(held[0]))

	p.Stop()
	waitFor(t, time.Second, func() bool { return log.last().State == model.Stopped })
	assert.New(t).Empty(rec.Held())
}

func sorted(in []uint8) []uint8 {
	out := append([]uint8(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestHighlightFollowsSpansAndClearsOnStop(t *testing.T) {
	rec := synth.NewRecorder()
	cfg := testConfig()
	p := New(rec, cfg)
	defer p.Shutdown()

	var mu sync.Mutex
	var spans []*model.Span
	p.HighlightFunc = func(s *model.Span) {
		mu.Lock()
		spans = append(spans, s)
		mu.Unlock()
	}
	log := &stateLog{}
	p.StateFunc = log.add

	p.Start(buildPlan("C*0.2  G*0.2", cfg), 0, cfg)
	waitFor(t, 5*time.Second, func() bool { return log.last().State == model.Stopped && log.count() > 2 })

	mu.Lock()
	defer mu.Unlock()
	assert := assert.New(t)
	assert.Equal(3, len(spans))
	assert.Equal(&model.Span{Line: 0, Start: 0, End: 5}, spans[0])
	assert.Equal(&model.Span{Line: 0, Start: 7, End: 12}, spans[1])
	assert.Nil(spans[2])
}

func TestPlaySingleLeadsVoicesAcrossClicks(t *testing.T) {
	rec := synth.NewRecorder()
	cfg := testConfig()
	p := New(rec, cfg)

	rcC := resolveToken(t, "C*0.1")
	rcAm := resolveToken(t, "Am*0.1")

	p.PlaySingle(rcC, 0.1)
	p.PlaySingle(rcAm, 0.1)
	p.Shutdown()

	var ons []synth.Event
	for _, e := range rec.Events() {
		if e.Kind == synth.EvNoteOn {
			ons = append(ons, e)
		}
	}

	// both clicks attack four pitches, but the Am click is voice-led
	// against the C click: C4 and E4 stay put, A goes to A4 not up an
	// octave
	assert := assert.New(t)
	assert.Equal(8, len(ons))
	assert.Equal([]uint8{57, 60, 64, 69}, pitchesOf(ons[4:]))
}

func resolveToken(t *testing.T, token string) model.ResolvedChord {
	t.Helper()
	prog := song.NewParser(chord.American).Parse(token)
	pl := plan.Build(prog, 0, model.Snapshot{BPM: 240, TimeSig: model.TimeSig{Num: 4, Unit: 4}})
	if len(pl.Steps) != 1 {
		t.Fatal("expected a single step")
	}
	return pl.Steps[0].Chord
}
