// Package chord parses chord-symbol tokens into model.ChordSymbol and
// expands symbols into semitone intervals. Rejection is silent at the
// token level: callers keep the error as a marker, never abort.
package chord

import (
	"strconv"
	"strings"

	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/note"
)

// Notation selects which root spellings the parser accepts.
type Notation uint8

const (
	American Notation = iota
	European
	Roman
)

func ParseNotation(s string) Notation {
	switch strings.ToLower(s) {
	case "european":
		return European
	case "roman":
		return Roman
	default:
		return American
	}
}

// RestToken is the reserved no-chord token.
const RestToken = "NC"

var europeanRoots = []struct {
	name   string
	letter byte
}{
	// longest first so "Sol" wins over "Si" prefix checks
	{"Sol", 'G'},
	{"Do", 'C'},
	{"Re", 'D'},
	{"Mi", 'E'},
	{"Fa", 'F'},
	{"La", 'A'},
	{"Si", 'B'},
}

func errOf(kind model.ParseErrKind, msg string) *model.ChordErr {
	return &model.ChordErr{Kind: kind, Msg: msg}
}

// Parse turns a single non-whitespace word into a ChordSymbol.
func Parse(token string, mode Notation) (*model.ChordSymbol, *model.ChordErr) {
	if token == "" {
		return nil, errOf(model.EmptyToken, "empty chord token")
	}

	body, beats, derr := splitDuration(token)
	if derr != nil {
		return nil, derr
	}

	if body == RestToken {
		return &model.ChordSymbol{Rest: true, Beats: beats}, nil
	}

	if mode == Roman {
		sym, err := parseRoman(body)
		if err != nil {
			return nil, err
		}
		sym.Beats = beats
		return sym, nil
	}

	root, n, ok := parseRoot(body, mode)
	if !ok {
		return nil, errOf(model.UnknownRoot, "unknown root in "+body)
	}

	sym := &model.ChordSymbol{Root: root, Beats: beats}
	if err := parseSuffix(body[n:], sym, mode); err != nil {
		return nil, err
	}
	return sym, nil
}

func splitDuration(token string) (string, float64, *model.ChordErr) {
	idx := strings.IndexByte(token, '*')
	if idx < 0 {
		return token, 0, nil
	}
	raw := token[idx+1:]
	beats, err := strconv.ParseFloat(raw, 64)
	if err != nil || beats <= 0 {
		return "", 0, errOf(model.BadDuration, "bad duration suffix *"+raw)
	}
	return token[:idx], beats, nil
}

func parseRoot(s string, mode Notation) (model.Root, int, bool) {
	if mode == European {
		for _, er := range europeanRoots {
			if strings.HasPrefix(s, er.name) {
				r := model.Root{Letter: er.letter}
				n := len(er.name)
				if len(s) > n {
					switch s[n] {
					case '#':
						r.Accidental = model.Sharp
						n++
					case 'b':
						r.Accidental = model.Flat
						n++
					}
				}
				return r, n, true
			}
		}
		return model.Root{}, 0, false
	}
	r, n, err := note.ParseRoot(s)
	if err != nil {
		return model.Root{}, 0, false
	}
	return r, n, true
}

// parseSuffix consumes everything after the root: quality, seventh,
// extension, adds, alterations, slash bass. Ordering follows the
// grammar; out-of-order input fails as UnknownQuality.
func parseSuffix(s string, sym *model.ChordSymbol, mode Notation) *model.ChordErr {
	sawMaj := false

	// quality (and the fused quality+seventh spellings)
	switch {
	case strings.HasPrefix(s, "m(maj7)"):
		sym.Quality = model.Minor
		sym.Seventh = model.MinMaj7
		s = s[len("m(maj7)"):]
	case strings.HasPrefix(s, "mM7"):
		sym.Quality = model.Minor
		sym.Seventh = model.MinMaj7
		s = s[len("mM7"):]
	case strings.HasPrefix(s, "m7b5"):
		sym.Quality = model.Minor
		sym.Seventh = model.HalfDim7
		s = s[len("m7b5"):]
	case strings.HasPrefix(s, "ø"):
		sym.Quality = model.Minor
		sym.Seventh = model.HalfDim7
		s = s[len("ø"):]
		s = strings.TrimPrefix(s, "7")
	case strings.HasPrefix(s, "Δ"):
		sym.Quality = model.Major
		sym.Seventh = model.Maj7
		s = s[len("Δ"):]
	case strings.HasPrefix(s, "dim"):
		sym.Quality = model.Dim
		s = s[len("dim"):]
	case strings.HasPrefix(s, "°"):
		sym.Quality = model.Dim
		s = s[len("°"):]
	case strings.HasPrefix(s, "aug"):
		sym.Quality = model.Aug
		s = s[len("aug"):]
	case strings.HasPrefix(s, "+"):
		sym.Quality = model.Aug
		s = s[1:]
	case strings.HasPrefix(s, "sus2"):
		sym.Quality = model.Sus2
		s = s[len("sus2"):]
	case strings.HasPrefix(s, "sus4"), strings.HasPrefix(s, "sus"):
		sym.Quality = model.Sus4
		if strings.HasPrefix(s, "sus4") {
			s = s[len("sus4"):]
		} else {
			s = s[len("sus"):]
		}
	case strings.HasPrefix(s, "min"):
		sym.Quality = model.Minor
		s = s[len("min"):]
	case strings.HasPrefix(s, "maj"):
		sym.Quality = model.Major
		sawMaj = true
		s = s[len("maj"):]
	case strings.HasPrefix(s, "m"):
		sym.Quality = model.Minor
		s = s[1:]
	case strings.HasPrefix(s, "M"):
		sym.Quality = model.Major
		sawMaj = true
		s = s[1:]
	case strings.HasPrefix(s, "5"):
		sym.Quality = model.Power
		s = s[1:]
	}

	// seventh
	if sym.Seventh == model.NoSeventh && strings.HasPrefix(s, "7") {
		switch {
		case sawMaj:
			sym.Seventh = model.Maj7
		case sym.Quality == model.Minor:
			sym.Seventh = model.Min7
		case sym.Quality == model.Dim:
			sym.Seventh = model.Dim7
		default:
			sym.Seventh = model.Dom7
		}
		s = s[1:]
	}

	// extension, implying a seventh when none is spelled out
	for _, ext := range []struct {
		lit string
		val model.Extension
	}{{"13", model.Ext13}, {"11", model.Ext11}, {"9", model.Ext9}} {
		if strings.HasPrefix(s, ext.lit) {
			sym.Extension = ext.val
			if sym.Seventh == model.NoSeventh {
				switch {
				case sawMaj:
					sym.Seventh = model.Maj7
				case sym.Quality == model.Minor:
					sym.Seventh = model.Min7
				default:
					sym.Seventh = model.Dom7
				}
			}
			s = s[len(ext.lit):]
			break
		}
	}

	// add*
	for strings.HasPrefix(s, "add") {
		s = s[len("add"):]
		num, rest := takeDigits(s)
		if num == "" {
			return errOf(model.BadAlteration, "add without degree")
		}
		n, _ := strconv.Atoi(num)
		if !validAdd(n) {
			return errOf(model.BadAlteration, "add"+num+" is not a chord degree")
		}
		sym.AddNotes = append(sym.AddNotes, n)
		s = rest
	}

	// alteration*
	for len(s) > 0 && (s[0] == 'b' || s[0] == '#') {
		delta := int8(1)
		if s[0] == 'b' {
			delta = -1
		}
		num, rest := takeDigits(s[1:])
		if num == "" {
			return errOf(model.BadAlteration, "dangling accidental in alteration")
		}
		n, _ := strconv.Atoi(num)
		if !validAlterationDegree(n) {
			return errOf(model.BadAlteration, "cannot alter degree "+num)
		}
		sym.Alterations = append(sym.Alterations, model.Alteration{Degree: n, Delta: delta})
		s = rest
	}

	// slash bass: suffixes beyond the accidental are dropped, C/Em
	// reads as C/E
	if strings.HasPrefix(s, "/") {
		bass, _, ok := parseRoot(s[1:], mode)
		if !ok {
			return errOf(model.BadBass, "bad bass note after slash")
		}
		sym.Bass = &bass
		s = ""
	}

	if s != "" {
		return errOf(model.UnknownQuality, "unrecognized chord suffix "+s)
	}

	// power chords carry nothing else
	if sym.Quality == model.Power &&
		(sym.Seventh != model.NoSeventh || sym.Extension != model.NoExtension || len(sym.AddNotes) > 0) {
		return errOf(model.UnknownQuality, "power chord cannot take sevenths or extensions")
	}

	return nil
}

func takeDigits(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

func validAdd(n int) bool {
	switch n {
	case 2, 4, 6, 9, 11, 13:
		return true
	}
	return false
}

func validAlterationDegree(n int) bool {
	switch n {
	case 5, 9, 11, 13:
		return true
	}
	return false
}

// BeatsOr returns the explicit duration or the given bar length.
func BeatsOr(sym *model.ChordSymbol, barBeats float64) float64 {
	if sym != nil && sym.Beats > 0 {
		return sym.Beats
	}
	if barBeats > 0 {
		return barBeats
	}
	return constants.DefaultTimeSigNum
}
