package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/directive"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/player"
	"github.com/chibicitiberiu/chordsheet-engine/song"
	"github.com/chibicitiberiu/chordsheet-engine/synth"
)

var (
	playSink     string
	playFrom     int
	playVoicing  string
	playBPM      int
	playNotation string
	playKey      string
	playPort     int
	playProgram  int
)

func init() {
	playCmd.Flags().StringVar(&playSink, "sink", "soundfont", "output: soundfont, midi or dry")
	playCmd.Flags().IntVar(&playFrom, "from", 0, "start at this line (0-based)")
	playCmd.Flags().StringVar(&playVoicing, "voicing", "piano", "piano or guitar:<tuning>")
	playCmd.Flags().IntVar(&playBPM, "bpm", constants.DefaultBPM, "initial tempo")
	playCmd.Flags().StringVar(&playNotation, "notation", "american", "american, european or roman")
	playCmd.Flags().StringVar(&playKey, "key", "C", "initial key")
	playCmd.Flags().IntVar(&playPort, "port", constants.GetMidiPort(), "MIDI out port number for --sink=midi")
	playCmd.Flags().IntVar(&playProgram, "program", 0, "General MIDI program")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Plays a chord sheet",
	Long:  `Plays a chord sheet`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			panic("Need a chord sheet file to play...")
		}
		play(args[0])
	},
}

func openSink() synth.Sink {
	switch playSink {
	case "midi":
		sink, err := synth.NewMidiSink(playPort)
		if err != nil {
			panic("Could not open MIDI sink: " + err.Error())
		}
		return sink
	case "dry":
		return synth.NewRecorder()
	default:
		sink, err := synth.NewSoundFontSink(constants.GetSoundFontPath())
		if err != nil {
			panic("Could not open SoundFont sink: " + err.Error())
		}
		return sink
	}
}

func play(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("Could not read chord sheet: " + err.Error())
	}

	mode := chord.ParseNotation(playNotation)
	prog := song.NewParser(mode).Parse(string(data))

	key, ok := directive.ParseKey(playKey, mode)
	if !ok {
		panic("Not a valid key: " + playKey)
	}

	cfg := model.PlayerConfig{
		InitialBPM:     float64(playBPM),
		TimeSig:        model.TimeSig{Num: constants.DefaultTimeSigNum, Unit: constants.DefaultTimeSigUnit},
		Key:            key,
		Voicing:        playVoicing,
		Program:        uint8(playProgram),
		Channel:        constants.PitchedChannel,
		ReleaseOnPause: true,
	}

	sink := openSink()
	defer sink.Close()

	p := player.New(sink, cfg)
	finished := make(chan struct{})
	started := false
	p.StateFunc = func(s model.StateSnapshot) {
		if s.State == model.Playing {
			started = true
			if s.ChordName != "" {
				fmt.Printf("bar %v/%v  %v bpm  %v\n", s.Bar, s.TotalBars, strconv.FormatFloat(s.BPM, 'f', -1, 64), s.ChordName)
			}
		}
		if s.State == model.Stopped && started {
			select {
			case <-finished:
			default:
				close(finished)
			}
		}
	}

	in := &player.Interactor{Player: p, Config: cfg}
	pl := in.StartFrom(prog, playFrom)
	for _, w := range pl.Warnings {
		fmt.Printf("warning: line %v: %v\n", w.Line+1, w.Msg)
	}

	<-finished
	p.Shutdown()
}
