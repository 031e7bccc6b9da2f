package player

import (
	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/notation"
	"github.com/chibicitiberiu/chordsheet-engine/plan"
)

// Interactor bridges editor gestures to player commands: clicking a
// chord plays it, starting from a cursor line builds a fresh plan.
type Interactor struct {
	Player *Player
	Config model.PlayerConfig
}

// StartFrom rebuilds the plan from the given line and starts it. The
// program is resolved fresh so edits made since the last start are
// heard.
func (in *Interactor) StartFrom(prog *model.SongProgram, line int) *model.Plan {
	cfg := normalizeConfig(in.Config)
	init := model.Snapshot{BPM: cfg.InitialBPM, TimeSig: cfg.TimeSig, Key: cfg.Key}
	pl := plan.Build(prog, line, init)
	in.Player.Start(pl, 0, cfg)
	return pl
}

func (in *Interactor) Start(prog *model.SongProgram) *model.Plan {
	return in.StartFrom(prog, 0)
}

// PlayChordAt plays the chord whose span contains the given document
// position. Returns false when the position is not on a valid chord.
func (in *Interactor) PlayChordAt(prog *model.SongProgram, line, col int) bool {
	tok, ok := TokenAt(prog, line, col)
	if !ok || tok.Symbol == nil {
		return false
	}

	key := activeKey(prog, line, normalizeConfig(in.Config).Key)
	rc := notation.Resolve(tok.Symbol, key)
	in.Player.PlaySingle(rc, chord.BeatsOr(tok.Symbol, 0))
	return true
}

// TokenAt finds the chord token at a document position by linear
// search over spans.
func TokenAt(prog *model.SongProgram, line, col int) (model.ChordToken, bool) {
	if line < 0 || line >= len(prog.Lines) {
		return model.ChordToken{}, false
	}
	for _, tok := range prog.Lines[line].Tokens {
		if tok.Span.Contains(line, col) {
			return tok, true
		}
	}
	return model.ChordToken{}, false
}

// activeKey folds key directives above the line so a clicked roman
// numeral resolves the way playback would.
func activeKey(prog *model.SongProgram, line int, initial model.Key) model.Key {
	key := initial
	for i := 0; i < len(prog.Lines) && i <= line; i++ {
		if prog.Lines[i].Type != model.LineDirective {
			continue
		}
		for _, d := range prog.Lines[i].Directives {
			if d.Valid && d.Type == model.DirectiveKey {
				key = d.Key
			}
		}
	}
	return key
}
