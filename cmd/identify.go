package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/identify"
)

var identifyPort int

func init() {
	identifyCmd.Flags().IntVar(&identifyPort, "port", constants.GetMidiPort(), "MIDI in port number")
	rootCmd.AddCommand(identifyCmd)
}

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Names chords played on a MIDI keyboard",
	Long:  `Names chords played on a MIDI keyboard`,
	Run: func(cmd *cobra.Command, args []string) {
		runIdentify()
	},
}

func runIdentify() {
	listener, err := identify.Listen(identifyPort, func(names []string) {
		if len(names) == 0 {
			return
		}
		fmt.Println(strings.Join(names, "  "))
	})
	if err != nil {
		panic("Could not listen for MIDI input: " + err.Error())
	}
	defer listener.Close()

	fmt.Println("Listening... play something (ctrl-c to quit)")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
