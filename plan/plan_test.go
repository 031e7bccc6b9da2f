package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/song"
)

func defaultInit() model.Snapshot {
	return model.Snapshot{
		BPM:     120,
		TimeSig: model.TimeSig{Num: 4, Unit: 4},
		Key:     model.Key{Root: model.Root{Letter: 'C'}},
	}
}

func build(text string) *model.Plan {
	prog := song.NewParser(chord.American).Parse(text)
	return Build(prog, 0, defaultInit())
}

func playedNames(p *model.Plan) []string {
	var res []string
	for _, s := range p.Steps {
		if s.Kind == model.StepPlay && !s.Chord.Rest {
			res = append(res, s.Chord.Name)
		}
	}
	return res
}

func TestSimpleProgression(t *testing.T) {
	p := build("C  Am  F  G")

	assert := assert.New(t)
	assert.Equal(4, len(p.Steps))
	for _, s := range p.Steps {
		assert.Equal(model.StepPlay, s.Kind)
		assert.Equal(4.0, s.Beats)
	}
	assert.Equal([]string{"C", "Am", "F", "G"}, playedNames(p))
	assert.Equal(16.0, p.TotalBeats)
}

func TestDurationsAndTimeSignature(t *testing.T) {
	p := build("{bpm: 120}\n{time: 3/4}\nC*3  G*3\nF")

	assert := assert.New(t)
	var beats []float64
	for _, s := range p.Steps {
		if s.Kind == model.StepPlay {
			beats = append(beats, s.Beats)
		}
	}
	// explicit *3 durations, then a bar of the new 3/4 signature
	assert.Equal([]float64{3, 3, 3}, beats)
}

func TestTempoSequenceWithReset(t *testing.T) {
	p := build("{bpm: 100}\nC\n{bpm: +40}\nC\n{bpm: reset}\nC")

	// walk the plan the way the scheduler would
	bpm, initial := 120.0, 120.0
	var seen []float64
	for _, s := range p.Steps {
		switch s.Kind {
		case model.StepContext:
			if s.Tempo != nil {
				bpm, initial = ApplyTempo(*s.Tempo, bpm, initial)
			}
		case model.StepPlay:
			seen = append(seen, bpm)
		}
	}
	assert.New(t).Equal([]float64{100, 140, 100}, seen)
}

func TestTempoResetUsesInitialNotPrevious(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(120.0, EvalTempo(model.TempoChange{Mode: model.TempoReset}, 77, 120))
	assert.Equal(60.0, EvalTempo(model.TempoChange{Mode: model.TempoPercent, Value: 50}, 999, 120))
	assert.Equal(240.0, EvalTempo(model.TempoChange{Mode: model.TempoMultiplier, Value: 2}, 80, 120))
}

func TestTempoClampsToPlayableRange(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(240.0, EvalTempo(model.TempoChange{Mode: model.TempoAbsolute, Value: 500}, 120, 120))
	assert.Equal(60.0, EvalTempo(model.TempoChange{Mode: model.TempoDelta, Value: -500}, 120, 120))
}

func TestLoopPlaysSectionCountTimes(t *testing.T) {
	p := build("{label: v}\nC  G\n{loop: v 2}")

	// count is the total number of passes, original included
	assert.New(t).Equal([]string{"C", "G", "C", "G"}, playedNames(p))
}

func TestLoopDefaultsToTwoPasses(t *testing.T) {
	p := build("{label: v}\nC\n{loop: v}")
	assert.New(t).Equal([]string{"C", "C"}, playedNames(p))
}

func TestLoopFromStart(t *testing.T) {
	p := build("C\n{loop: @start 3}")
	assert.New(t).Equal([]string{"C", "C", "C"}, playedNames(p))
}

func TestNestedLoops(t *testing.T) {
	p := build("{label: a}\nC\n{label: b}\nG\n{loop: b 2}\n{loop: a 2}")

	// inner loop doubles G; outer pass replays the doubled section
	assert.New(t).Equal([]string{"C", "G", "G", "C", "G", "G"}, playedNames(p))
}

func TestLoopRestoresContextAtLabel(t *testing.T) {
	p := build("{bpm: 100}\n{label: v}\nC\n{bpm: +40}\nG\n{loop: v 2}")

	bpm, initial := 120.0, 120.0
	var seen []float64
	for _, s := range p.Steps {
		switch s.Kind {
		case model.StepContext:
			if s.Tempo != nil {
				bpm, initial = ApplyTempo(*s.Tempo, bpm, initial)
			}
		case model.StepPlay:
			seen = append(seen, bpm)
		}
	}
	// second pass starts back at 100, not at 140
	assert.New(t).Equal([]float64{100, 140, 100, 140}, seen)
}

func TestMissingLoopTargetIsSkipped(t *testing.T) {
	p := build("C\n{loop: nowhere 2}")

	assert := assert.New(t)
	assert.Equal([]string{"C"}, playedNames(p))
	assert.Equal(1, len(p.Warnings))
}

func TestForwardLoopTargetIsSkipped(t *testing.T) {
	p := build("C\n{loop: later 2}\n{label: later}\nG")

	assert := assert.New(t)
	assert.Equal([]string{"C", "G"}, playedNames(p))
	assert.Equal(1, len(p.Warnings))
}

func TestRestsConsumeTime(t *testing.T) {
	p := build("C  NC*2  G")

	assert := assert.New(t)
	assert.Equal(3, len(p.Steps))
	assert.True(p.Steps[1].Chord.Rest)
	assert.Equal(2.0, p.Steps[1].Beats)
	assert.Equal(10.0, p.TotalBeats)
}

func TestStartLineSkipsEarlierStepsButKeepsContext(t *testing.T) {
	prog := song.NewParser(chord.American).Parse("{bpm: 90}\n{key: G}\nC\nD  G")
	p := Build(prog, 3, defaultInit())

	assert := assert.New(t)
	assert.Equal([]string{"D", "G"}, playedNames(p))
	// the tempo and key set above the start open the plan
	assert.Equal(model.StepContext, p.Steps[0].Kind)
	assert.Equal(90.0, p.Steps[0].Tempo.Value)
	assert.Equal(model.Key{Root: model.Root{Letter: 'G'}}, *p.Steps[0].Key)
}

func TestRomanChordsResolveAgainstCurrentKey(t *testing.T) {
	prog := song.NewParser(chord.Roman).Parse("{key: C}\nI V\n{key: G}\nI V")
	p := Build(prog, 0, defaultInit())

	assert.New(t).Equal([]string{"C", "G", "G", "D"}, playedNames(p))
}

func TestInvalidTokensEmitNothing(t *testing.T) {
	p := build("C zzz% G7 F")
	assert.New(t).Equal([]string{"C", "G7", "F"}, playedNames(p))
}

func TestPlanIsDeterministic(t *testing.T) {
	text := "{label: v}\nC G Am F\n{bpm: +20}\n{loop: v 3}"
	a := build(text)
	b := build(text)
	assert.New(t).Equal(a, b)
}
