package chord

import (
	"strings"

	"github.com/chibicitiberiu/chordsheet-engine/model"
)

var upperNumerals = []string{"VII", "VI", "IV", "III", "II", "V", "I"}
var lowerNumerals = []string{"vii", "vi", "iv", "iii", "ii", "v", "i"}

var numeralDegree = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6, "VII": 7,
}

// matchNumeral finds the longest roman numeral prefix of s, returning
// the degree, whether it was uppercase, and the bytes consumed.
func matchNumeral(s string) (degree int, upper bool, n int) {
	for _, num := range upperNumerals {
		if strings.HasPrefix(s, num) {
			return numeralDegree[num], true, len(num)
		}
	}
	for _, num := range lowerNumerals {
		if strings.HasPrefix(s, num) {
			return numeralDegree[strings.ToUpper(num)], false, len(num)
		}
	}
	return 0, false, 0
}

func takeAccidental(s string) (model.Accidental, string) {
	if len(s) > 0 {
		switch s[0] {
		case '#':
			return model.Sharp, s[1:]
		case 'b':
			return model.Flat, s[1:]
		}
	}
	return model.Natural, s
}

// parseRoman reads a roman-numeral chord: optional accidental, the
// numeral (case picks major/minor), optional ° for diminished,
// optional 7/maj7, optional slash numeral bass.
func parseRoman(body string) (*model.ChordSymbol, *model.ChordErr) {
	acc, s := takeAccidental(body)

	degree, upper, n := matchNumeral(s)
	if degree == 0 {
		return nil, errOf(model.UnknownRoot, "not a roman numeral: "+body)
	}
	s = s[n:]

	sym := &model.ChordSymbol{
		Degree:           degree,
		DegreeAccidental: acc,
	}
	if upper {
		sym.Quality = model.Major
	} else {
		sym.Quality = model.Minor
	}

	if strings.HasPrefix(s, "°") {
		sym.Quality = model.Dim
		s = s[len("°"):]
	}

	switch {
	case strings.HasPrefix(s, "maj7"):
		sym.Seventh = model.Maj7
		s = s[len("maj7"):]
	case strings.HasPrefix(s, "7"):
		switch sym.Quality {
		case model.Dim:
			sym.Seventh = model.Dim7
		case model.Minor:
			sym.Seventh = model.Min7
		default:
			sym.Seventh = model.Dom7
		}
		s = s[1:]
	}

	if strings.HasPrefix(s, "/") {
		bacc, rest := takeAccidental(s[1:])
		bdeg, _, bn := matchNumeral(rest)
		if bdeg == 0 {
			return nil, errOf(model.BadBass, "bad roman bass in "+body)
		}
		sym.BassDegree = bdeg
		sym.BassDegreeAccidental = bacc
		s = rest[bn:]
	}

	if s != "" {
		return nil, errOf(model.UnknownQuality, "unrecognized roman suffix "+s)
	}
	return sym, nil
}
