// Package song classifies chord-sheet text into a SongProgram: chord
// lines, lyric lines, comments and directive lines, plus the label
// table used by loops.
package song

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/directive"
	"github.com/chibicitiberiu/chordsheet-engine/model"
)

// ChordLineRatio is the share of parseable tokens a line needs to
// classify as a chord line.
const ChordLineRatio = 0.6

type Parser struct {
	Mode chord.Notation
}

func NewParser(mode chord.Notation) *Parser {
	return &Parser{Mode: mode}
}

// Parse classifies the whole document. Line indices are 0-based.
func (p *Parser) Parse(text string) *model.SongProgram {
	text = norm.NFC.String(text)

	prog := &model.SongProgram{Labels: make(map[string]int)}
	for i, content := range strings.Split(text, "\n") {
		line := p.ParseLine(content, i)
		if line.Type == model.LineDirective {
			for _, d := range line.Directives {
				if d.Valid && d.Type == model.DirectiveLabel {
					// redefinition is fine, last one wins
					prog.Labels[d.Label] = i
				}
			}
		}
		prog.Lines = append(prog.Lines, line)
	}
	return prog
}

// ParseLine classifies a single line. The comment suffix is stripped
// before classification but kept on the Line.
func (p *Parser) ParseLine(content string, index int) model.Line {
	line := model.Line{Content: content, Index: index, Type: model.LineLyric}

	body, comment := splitComment(content)
	line.Comment = comment

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		if strings.TrimSpace(comment) != "" && strings.TrimSpace(content) != "" {
			line.Type = model.LineComment
		}
		return line
	}

	if directive.IsDirectiveLine(body) {
		line.Type = model.LineDirective
		line.Directives = directive.ParseAll(body, index, p.Mode)
		return line
	}

	tokens := p.tokenize(body, index)
	considered, valid := 0, 0
	for _, t := range tokens {
		// short lyric words like "a" or "I" do not drag the ratio
		// down; a short word that parses (C, G, roman I/V) still
		// counts
		if len(t.Text) < 2 && !t.Valid() {
			continue
		}
		considered++
		if t.Valid() {
			valid++
		}
	}

	if considered > 0 && float64(valid)/float64(considered) >= ChordLineRatio {
		line.Type = model.LineChord
		line.Tokens = tokens
	}
	return line
}

// splitComment finds the first // outside a {...} form and splits
// there. The comment includes the slashes.
func splitComment(content string) (string, string) {
	depth := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 && i+1 < len(content) && content[i+1] == '/' {
				return content[:i], content[i:]
			}
		}
	}
	return content, ""
}

func (p *Parser) tokenize(body string, index int) []model.ChordToken {
	var tokens []model.ChordToken
	i := 0
	for i < len(body) {
		if isSpace(body[i]) {
			i++
			continue
		}
		start := i
		for i < len(body) && !isSpace(body[i]) {
			i++
		}
		text := body[start:i]
		tok := model.ChordToken{
			Text: text,
			Span: model.Span{Line: index, Start: start, End: i},
		}
		tok.Symbol, tok.Err = chord.Parse(text, p.Mode)
		tokens = append(tokens, tok)
	}
	return tokens
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}
