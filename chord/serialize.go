package chord

import (
	"strconv"
	"strings"

	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/note"
)

var extNum = map[model.Extension]string{
	model.Ext9:  "9",
	model.Ext11: "11",
	model.Ext13: "13",
}

var romanUpper = [8]string{"", "I", "II", "III", "IV", "V", "VI", "VII"}

// Serialize renders a symbol back to canonical text: American letter
// names, or roman numerals for a roman symbol. Parsing the result
// yields an equal symbol.
func Serialize(sym *model.ChordSymbol) string {
	var b strings.Builder

	switch {
	case sym.Rest:
		b.WriteString(RestToken)
	case sym.IsRoman():
		writeRoman(&b, sym)
	default:
		b.WriteString(note.Name(sym.Root))
		writeSuffix(&b, sym)
		if sym.Bass != nil {
			b.WriteByte('/')
			b.WriteString(note.Name(*sym.Bass))
		}
	}

	if sym.Beats > 0 {
		b.WriteByte('*')
		b.WriteString(strconv.FormatFloat(sym.Beats, 'f', -1, 64))
	}
	return b.String()
}

func writeSuffix(b *strings.Builder, sym *model.ChordSymbol) {
	// fused extension spellings first: maj9, m9, 9 ...; other
	// qualities spell quality and seventh, then the extension number
	fused := sym.Quality == model.Major || (sym.Quality == model.Minor && sym.Seventh == model.Min7)
	if sym.Extension != model.NoExtension && fused {
		switch sym.Seventh {
		case model.Maj7:
			b.WriteString("maj")
		case model.Min7:
			b.WriteString("m")
		}
		b.WriteString(extNum[sym.Extension])
	} else {
		switch sym.Quality {
		case model.Minor:
			switch sym.Seventh {
			case model.Min7:
				b.WriteString("m7")
			case model.HalfDim7:
				b.WriteString("m7b5")
			case model.MinMaj7:
				b.WriteString("mM7")
			default:
				b.WriteString("m")
			}
		case model.Dim:
			if sym.Seventh == model.Dim7 {
				b.WriteString("dim7")
			} else {
				// an extension on dim carries its seventh implicitly
				b.WriteString("dim")
				if sym.Extension == model.NoExtension {
					writeBareSeventh(b, sym.Seventh)
				}
			}
		case model.Aug:
			b.WriteString("aug")
			writeBareSeventh(b, sym.Seventh)
		case model.Sus2:
			b.WriteString("sus2")
			writeBareSeventh(b, sym.Seventh)
		case model.Sus4:
			b.WriteString("sus4")
			writeBareSeventh(b, sym.Seventh)
		case model.Power:
			b.WriteString("5")
		default:
			writeBareSeventh(b, sym.Seventh)
		}
		if sym.Extension != model.NoExtension {
			b.WriteString(extNum[sym.Extension])
		}
	}

	for _, n := range sym.AddNotes {
		b.WriteString("add")
		b.WriteString(strconv.Itoa(n))
	}
	for _, alt := range sym.Alterations {
		if alt.Delta < 0 {
			b.WriteByte('b')
		} else {
			b.WriteByte('#')
		}
		b.WriteString(strconv.Itoa(alt.Degree))
	}
}

func writeBareSeventh(b *strings.Builder, s model.Seventh) {
	switch s {
	case model.Dom7:
		b.WriteString("7")
	case model.Maj7:
		b.WriteString("maj7")
	}
}

func writeRoman(b *strings.Builder, sym *model.ChordSymbol) {
	writeAccidental(b, sym.DegreeAccidental)
	num := romanUpper[sym.Degree]
	if sym.Quality == model.Major {
		b.WriteString(num)
	} else {
		b.WriteString(strings.ToLower(num))
	}
	if sym.Quality == model.Dim {
		b.WriteString("°")
	}
	switch sym.Seventh {
	case model.Maj7:
		b.WriteString("maj7")
	case model.Dom7, model.Min7, model.Dim7:
		b.WriteString("7")
	}
	if sym.BassDegree > 0 {
		b.WriteByte('/')
		writeAccidental(b, sym.BassDegreeAccidental)
		b.WriteString(romanUpper[sym.BassDegree])
	}
}

func writeAccidental(b *strings.Builder, acc model.Accidental) {
	switch acc {
	case model.Sharp:
		b.WriteByte('#')
	case model.Flat:
		b.WriteByte('b')
	}
}
