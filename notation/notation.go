// Package notation translates chord symbols between American,
// European and roman-numeral representations. Translation operates on
// parsed symbols, not text, so it is idempotent.
package notation

import (
	"strings"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/note"
)

var americanToEuropean = map[byte]string{
	'C': "Do", 'D': "Re", 'E': "Mi", 'F': "Fa", 'G': "Sol", 'A': "La", 'B': "Si",
}

// FormatRoot renders a root in the requested notation.
func FormatRoot(r model.Root, mode chord.Notation) string {
	if mode != chord.European {
		return note.Name(r)
	}
	name := americanToEuropean[r.Letter]
	switch r.Accidental {
	case model.Sharp:
		name += "#"
	case model.Flat:
		name += "b"
	}
	return name
}

// Format serializes a symbol in the requested notation. Roman symbols
// render as roman regardless of mode; rests are NC everywhere.
func Format(sym *model.ChordSymbol, mode chord.Notation) string {
	s := chord.Serialize(sym)
	if mode != chord.European || sym.Rest || sym.IsRoman() {
		return s
	}

	// swap the American root (and bass) spellings for solfege ones
	rootName := note.Name(sym.Root)
	s = FormatRoot(sym.Root, mode) + strings.TrimPrefix(s, rootName)
	if sym.Bass != nil {
		bassName := note.Name(*sym.Bass)
		idx := strings.LastIndex(s, "/"+bassName)
		if idx >= 0 {
			s = s[:idx] + "/" + FormatRoot(*sym.Bass, mode) + s[idx+1+len(bassName):]
		}
	}
	return s
}
