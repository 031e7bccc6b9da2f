package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/plan"
	"github.com/chibicitiberiu/chordsheet-engine/song"
)

var checkNotation string

func init() {
	checkCmd.Flags().StringVar(&checkNotation, "notation", "american", "american, european or roman")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Checks a chord sheet for problems",
	Long:  `Checks a chord sheet for problems`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			panic("Need a chord sheet file to check...")
		}
		if problems := check(args[0]); problems > 0 {
			fmt.Printf("%v problem(s) found\n", problems)
			os.Exit(1)
		}
		fmt.Println("ok")
	},
}

func check(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("Could not read chord sheet: " + err.Error())
	}

	mode := chord.ParseNotation(checkNotation)
	prog := song.NewParser(mode).Parse(string(data))

	problems := 0
	for _, ln := range prog.Lines {
		for _, tok := range ln.Tokens {
			if tok.Err != nil {
				fmt.Printf("line %v col %v: chord %q: %v\n", ln.Index+1, tok.Span.Start+1, tok.Text, tok.Err.Msg)
				problems++
			}
		}
		for _, d := range ln.Directives {
			if !d.Valid {
				fmt.Printf("line %v col %v: directive {%v: ...} is invalid\n", ln.Index+1, d.Span.Start+1, d.Name)
				problems++
			}
		}
	}

	// surface plan-level problems like missing loop targets too
	init := model.Snapshot{
		BPM:     constants.DefaultBPM,
		TimeSig: model.TimeSig{Num: constants.DefaultTimeSigNum, Unit: constants.DefaultTimeSigUnit},
	}
	for _, w := range plan.Build(prog, 0, init).Warnings {
		fmt.Printf("line %v: %v\n", w.Line+1, w.Msg)
		problems++
	}

	return problems
}
