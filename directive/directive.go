// Package directive parses {name: value} forms. Names are
// case-insensitive; malformed forms are kept as invalid markers with
// their span so the editor can flag them.
package directive

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/util"
)

var formRe = regexp.MustCompile(`\{[^{}]*\}`)
var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseAll extracts every {…} form from a line. Forms without a
// name:value shape come back as invalid markers with their span.
func ParseAll(line string, lineIdx int, mode chord.Notation) []model.Directive {
	var res []model.Directive
	for _, m := range formRe.FindAllStringIndex(line, -1) {
		span := model.Span{Line: lineIdx, Start: m[0], End: m[1]}
		body := line[m[0]+1 : m[1]-1]

		name, value, found := strings.Cut(body, ":")
		if !found {
			res = append(res, model.Directive{
				Type: model.DirectiveUnknown,
				Span: span,
				Name: strings.TrimSpace(body),
			})
			continue
		}
		res = append(res, parseOne(strings.TrimSpace(name), strings.TrimSpace(value), span, mode))
	}
	return res
}

// IsDirectiveLine reports whether the line's non-whitespace content is
// nothing but {…} forms, well formed or not.
func IsDirectiveLine(line string) bool {
	rest := formRe.ReplaceAllString(line, "")
	return strings.TrimSpace(rest) == "" && strings.Contains(line, "{")
}

func parseOne(name, value string, span model.Span, mode chord.Notation) model.Directive {
	d := model.Directive{Span: span, Valid: true, Name: name}

	switch strings.ToLower(name) {
	case "bpm", "tempo":
		d.Type = model.DirectiveTempo
		parseTempo(value, &d)
	case "time":
		d.Type = model.DirectiveTime
		parseTime(value, &d)
	case "key":
		d.Type = model.DirectiveKey
		parseKey(value, &d, mode)
	case "label":
		d.Type = model.DirectiveLabel
		if labelRe.MatchString(value) {
			d.Label = value
		} else {
			d.Valid = false
		}
	case "loop":
		d.Type = model.DirectiveLoop
		parseLoop(value, &d)
	default:
		d.Type = model.DirectiveUnknown
		d.Valid = false
	}
	return d
}

func parseTempo(value string, d *model.Directive) {
	lower := strings.ToLower(value)

	if lower == "reset" || lower == "original" {
		d.TempoMode = model.TempoReset
		return
	}

	if strings.HasSuffix(value, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil || pct <= 0 {
			d.Valid = false
			return
		}
		d.TempoMode = model.TempoPercent
		d.TempoValue = pct
		return
	}

	if strings.HasSuffix(lower, "x") || strings.HasSuffix(value, "×") {
		raw := strings.TrimSuffix(strings.TrimSuffix(lower, "x"), "×")
		mult, err := strconv.ParseFloat(raw, 64)
		if err != nil || mult <= 0 {
			d.Valid = false
			return
		}
		d.TempoMode = model.TempoMultiplier
		d.TempoValue = mult
		return
	}

	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		delta, err := strconv.Atoi(value)
		if err != nil {
			d.Valid = false
			return
		}
		d.TempoMode = model.TempoDelta
		d.TempoValue = float64(delta)
		return
	}

	bpm, err := strconv.Atoi(value)
	if err != nil || bpm <= 0 {
		d.Valid = false
		return
	}
	d.TempoMode = model.TempoAbsolute
	d.TempoValue = float64(bpm)
}

func parseTime(value string, d *model.Directive) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		d.Valid = false
		return
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	unit, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || num < 1 || num > 16 || !validUnit(unit) {
		d.Valid = false
		return
	}
	d.TimeSig = model.TimeSig{Num: num, Unit: unit}
}

func validUnit(unit int) bool {
	switch unit {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// ParseKey reads a key value like "C", "F#m", "Rem". Exported for the
// CLI flags and HTTP requests that carry keys as strings. Roman
// documents still name their keys with note letters.
func ParseKey(value string, mode chord.Notation) (model.Key, bool) {
	if mode == chord.Roman {
		mode = chord.American
	}
	sym, err := chord.Parse(value, mode)
	if err != nil || sym.Rest || sym.IsRoman() {
		return model.Key{}, false
	}
	// only a bare root with optional minor quality names a key
	if sym.Seventh != model.NoSeventh || sym.Extension != model.NoExtension ||
		len(sym.AddNotes) > 0 || len(sym.Alterations) > 0 || sym.Bass != nil || sym.Beats > 0 {
		return model.Key{}, false
	}
	switch sym.Quality {
	case model.Major:
		return model.Key{Root: sym.Root}, true
	case model.Minor:
		return model.Key{Root: sym.Root, Minor: true}, true
	}
	return model.Key{}, false
}

func parseKey(value string, d *model.Directive, mode chord.Notation) {
	key, ok := ParseKey(value, mode)
	if !ok {
		d.Valid = false
		return
	}
	d.Key = key
}

func parseLoop(value string, d *model.Directive) {
	parts := strings.Fields(value)
	if len(parts) == 0 || len(parts) > 2 {
		d.Valid = false
		return
	}
	target := parts[0]
	if target != model.StartLabel && !labelRe.MatchString(target) {
		d.Valid = false
		return
	}
	d.Label = target
	d.LoopCount = constants.DefaultLoopCount
	if len(parts) == 2 {
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			d.Valid = false
			return
		}
		d.LoopCount = util.Clamp(count, 1, constants.MaxLoopCount)
	}
}
