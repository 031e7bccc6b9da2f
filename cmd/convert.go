package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/notation"
	"github.com/chibicitiberiu/chordsheet-engine/song"
)

var (
	convertFrom string
	convertTo   string
)

func init() {
	convertCmd.Flags().StringVar(&convertFrom, "from", "american", "notation the file is written in")
	convertCmd.Flags().StringVar(&convertTo, "to", "european", "notation to convert to")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Rewrites chord names in another notation",
	Long:  `Rewrites chord names in another notation, printing the converted sheet to stdout`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			panic("Need a chord sheet file to convert...")
		}
		convert(args[0])
	},
}

func convert(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("Could not read chord sheet: " + err.Error())
	}

	from := chord.ParseNotation(convertFrom)
	to := chord.ParseNotation(convertTo)
	prog := song.NewParser(from).Parse(string(data))

	var out []string
	for _, ln := range prog.Lines {
		out = append(out, convertLine(ln, to))
	}
	fmt.Print(strings.Join(out, "\n"))
}

// convertLine splices reformatted tokens back into the original line,
// leaving lyrics, directives, comments and invalid tokens untouched.
func convertLine(ln model.Line, to chord.Notation) string {
	if ln.Type != model.LineChord {
		return ln.Content
	}

	var b strings.Builder
	pos := 0
	for _, tok := range ln.Tokens {
		b.WriteString(ln.Content[pos:tok.Span.Start])
		if tok.Symbol != nil {
			b.WriteString(notation.Format(tok.Symbol, to))
		} else {
			b.WriteString(tok.Text)
		}
		pos = tok.Span.End
	}
	b.WriteString(ln.Content[pos:])
	return b.String()
}
