// Package plan resolves a SongProgram into a flat playback program.
// Loops are unrolled inline; each re-entry restores the tempo, time
// signature and key that were active at the target label.
package plan

import (
	"fmt"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/notation"
	"github.com/chibicitiberiu/chordsheet-engine/util"
)

// maxSteps bounds pathological nested loops. Hitting it records a
// warning and truncates the plan.
const maxSteps = 100000

// EvalTempo applies a tempo change. Percentage, multiplier and reset
// evaluate against the initial tempo (the tempo at playback start, or
// the last absolute tempo, see ApplyTempo); deltas move the current
// tempo. The result is clamped to the
// playable range.
func EvalTempo(tc model.TempoChange, current, initial float64) float64 {
	var bpm float64
	switch tc.Mode {
	case model.TempoDelta:
		bpm = current + tc.Value
	case model.TempoPercent:
		bpm = initial * tc.Value / 100
	case model.TempoMultiplier:
		bpm = initial * tc.Value
	case model.TempoReset:
		bpm = initial
	default:
		bpm = tc.Value
	}
	return util.Clamp(bpm, constants.MinBPM, constants.MaxBPM)
}

// ApplyTempo evaluates a tempo change and re-captures the initial
// tempo when the sheet states an absolute one, so a later reset comes
// back to the tempo the sheet declared rather than the player
// default.
func ApplyTempo(tc model.TempoChange, current, initial float64) (float64, float64) {
	bpm := EvalTempo(tc, current, initial)
	if tc.Mode == model.TempoAbsolute {
		initial = bpm
	}
	return bpm, initial
}

type builder struct {
	prog *model.SongProgram

	steps    []model.PlanStep
	warnings []model.PlanWarning

	ctx        model.Snapshot
	initialBPM float64
	snapshots  map[string]model.Snapshot

	total   float64
	aborted bool
}

// Build resolves the program from startLine onward. Directive effects
// on earlier lines are folded into the starting context without
// emitting steps, so playing from the middle of a song still honors
// the tempo and key set above it.
func Build(prog *model.SongProgram, startLine int, init model.Snapshot) *model.Plan {
	b := &builder{
		prog:       prog,
		ctx:        init,
		initialBPM: init.BPM,
		snapshots:  map[string]model.Snapshot{model.StartLabel: init},
	}

	if startLine < 0 {
		startLine = 0
	}
	if startLine > len(prog.Lines) {
		startLine = len(prog.Lines)
	}

	for i := 0; i < startLine; i++ {
		b.applyContextOnly(prog.Lines[i])
	}
	if b.ctx != init {
		// hand the folded context to the player: the last absolute
		// tempo first, then any relative move made after it
		sig, key := b.ctx.TimeSig, b.ctx.Key
		span := model.Span{Line: startLine}
		abs := model.TempoChange{Mode: model.TempoAbsolute, Value: b.initialBPM}
		b.steps = append(b.steps, model.PlanStep{Kind: model.StepContext, Span: span, Tempo: &abs, TimeSig: &sig, Key: &key})
		if b.ctx.BPM != b.initialBPM {
			rel := model.TempoChange{Mode: model.TempoDelta, Value: b.ctx.BPM - b.initialBPM}
			b.steps = append(b.steps, model.PlanStep{Kind: model.StepContext, Span: span, Tempo: &rel})
		}
	}
	b.walk(startLine, len(prog.Lines))

	return &model.Plan{
		Steps:      b.steps,
		Warnings:   b.warnings,
		TotalBeats: b.total,
	}
}

// applyContextOnly folds a pre-start line's directives into the
// context and snapshot table. Loops before the start are not
// replayed.
func (b *builder) applyContextOnly(ln model.Line) {
	if ln.Type != model.LineDirective {
		return
	}
	for _, d := range ln.Directives {
		if !d.Valid || d.Type == model.DirectiveLoop {
			continue
		}
		b.applyDirective(d, false)
	}
}

func (b *builder) walk(from, to int) {
	for i := from; i < to && !b.aborted; i++ {
		b.line(b.prog.Lines[i], -1)
	}
}

// line emits a whole line, or for directive lines only the items
// before stopItem (used when replaying up to a loop directive).
func (b *builder) line(ln model.Line, stopItem int) {
	switch ln.Type {
	case model.LineChord:
		for _, tok := range ln.Tokens {
			if tok.Symbol == nil {
				continue
			}
			b.play(tok)
		}
	case model.LineDirective:
		for j, d := range ln.Directives {
			if stopItem >= 0 && j >= stopItem {
				return
			}
			if !d.Valid {
				continue
			}
			if d.Type == model.DirectiveLoop {
				b.loop(d, ln.Index, j)
			} else {
				b.applyDirective(d, true)
			}
		}
	}
}

func (b *builder) play(tok model.ChordToken) {
	if len(b.steps) >= maxSteps {
		b.abort(tok.Span.Line)
		return
	}
	beats := chord.BeatsOr(tok.Symbol, float64(b.ctx.TimeSig.Num))
	b.steps = append(b.steps, model.PlanStep{
		Kind:  model.StepPlay,
		Chord: notation.Resolve(tok.Symbol, b.ctx.Key),
		Beats: beats,
		Span:  tok.Span,
	})
	b.total += beats
}

// applyDirective updates the builder context, optionally emitting the
// matching context step.
func (b *builder) applyDirective(d model.Directive, emit bool) {
	var step model.PlanStep
	step.Kind = model.StepContext
	step.Span = d.Span

	switch d.Type {
	case model.DirectiveTempo:
		tc := model.TempoChange{Mode: d.TempoMode, Value: d.TempoValue}
		b.ctx.BPM, b.initialBPM = ApplyTempo(tc, b.ctx.BPM, b.initialBPM)
		step.Tempo = &tc
	case model.DirectiveTime:
		sig := d.TimeSig
		b.ctx.TimeSig = sig
		step.TimeSig = &sig
	case model.DirectiveKey:
		key := d.Key
		b.ctx.Key = key
		step.Key = &key
	case model.DirectiveLabel:
		// labels emit nothing; they pin the context for loops
		b.snapshots[d.Label] = b.ctx
		return
	default:
		return
	}

	if emit {
		if len(b.steps) >= maxSteps {
			b.abort(d.Span.Line)
			return
		}
		b.steps = append(b.steps, step)
	}
}

// loop unrolls {loop: target count}. Count is the total number of
// passes through the section; the pass already emitted counts as the
// first, so count-1 replays follow.
func (b *builder) loop(d model.Directive, lineIdx, itemIdx int) {
	targetLine, ok := b.prog.LabelLine(d.Label)
	snap, haveSnap := b.snapshots[d.Label]
	if !ok || !haveSnap || targetLine > lineIdx {
		b.warnings = append(b.warnings, model.PlanWarning{
			Line: lineIdx,
			Msg:  fmt.Sprintf("loop target %q is not defined above the loop, skipping", d.Label),
		})
		return
	}

	for pass := 1; pass < d.LoopCount && !b.aborted; pass++ {
		b.restore(snap, d.Span)
		b.walk(targetLine, lineIdx)
		if !b.aborted {
			b.line(b.prog.Lines[lineIdx], itemIdx)
		}
	}
}

// restore emits one context step that puts tempo, time signature and
// key back to the label snapshot.
func (b *builder) restore(snap model.Snapshot, span model.Span) {
	if len(b.steps) >= maxSteps {
		b.abort(span.Line)
		return
	}
	tc := model.TempoChange{Mode: model.TempoAbsolute, Value: snap.BPM}
	sig := snap.TimeSig
	key := snap.Key
	b.ctx = snap
	b.steps = append(b.steps, model.PlanStep{
		Kind:    model.StepContext,
		Span:    span,
		Tempo:   &tc,
		TimeSig: &sig,
		Key:     &key,
	})
}

func (b *builder) abort(line int) {
	if b.aborted {
		return
	}
	b.aborted = true
	b.warnings = append(b.warnings, model.PlanWarning{
		Line: line,
		Msg:  "plan exceeds the step limit, truncated",
	})
}
