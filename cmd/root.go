package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chordsheet",
	Short: "Chord sheet engine",
	Long:  `Parses chord sheets and plays them through MIDI or a SoundFont synth.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
