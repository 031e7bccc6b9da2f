package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/chibicitiberiu/chordsheet-engine/chord"
	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/db"
	"github.com/chibicitiberiu/chordsheet-engine/directive"
	"github.com/chibicitiberiu/chordsheet-engine/model"
	"github.com/chibicitiberiu/chordsheet-engine/notation"
	"github.com/chibicitiberiu/chordsheet-engine/song"
	"github.com/chibicitiberiu/chordsheet-engine/voicing"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the editor bridge API",
	Long:  `Serves the editor bridge API`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

// serveSession identifies this server run; /chord responses carry it
// so clients notice when voice-leading state was reset by a restart.
var serveSession string

// one engine per session keeps clicked chords voice-led like playback
var (
	serveEngineMu sync.Mutex
	serveEngine   voicing.Engine
)

func LoadServeState() {
	serveSession = uuid.New().String()
	serveEngine = voicing.NewPiano()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}

func lineTypeName(t model.LineType) string {
	switch t {
	case model.LineChord:
		return "chord"
	case model.LineDirective:
		return "directive"
	case model.LineComment:
		return "comment"
	default:
		return "lyric"
	}
}

func HandleParse(w http.ResponseWriter, r *http.Request) {
	var input model.ParseRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, 400, "could not decode request body: "+err.Error())
		return
	}

	mode := chord.ParseNotation(input.Notation)
	prog := song.NewParser(mode).Parse(input.Text)

	var res model.ParseResponse
	res.Labels = prog.Labels
	for _, ln := range prog.Lines {
		lr := model.LineResult{Index: ln.Index, Type: lineTypeName(ln.Type)}
		for _, tok := range ln.Tokens {
			tr := model.TokenResult{
				Text:  tok.Text,
				Start: tok.Span.Start,
				End:   tok.Span.End,
				Valid: tok.Valid(),
			}
			if tok.Symbol != nil {
				tr.Name = chord.Serialize(tok.Symbol)
			} else if tok.Err != nil {
				tr.Error = tok.Err.Msg
			}
			lr.Tokens = append(lr.Tokens, tr)
		}
		for _, d := range ln.Directives {
			lr.Directives = append(lr.Directives, model.TokenResult{
				Text:  ln.Content[d.Span.Start:d.Span.End],
				Start: d.Span.Start,
				End:   d.Span.End,
				Valid: d.Valid,
				Name:  d.Name,
			})
		}
		res.Lines = append(res.Lines, lr)
	}
	json.NewEncoder(w).Encode(res)
}

func HandleChord(w http.ResponseWriter, r *http.Request) {
	var input model.ChordRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, 400, "could not decode request body: "+err.Error())
		return
	}

	mode := chord.ParseNotation(input.Notation)
	sym, cerr := chord.Parse(input.Token, mode)
	if cerr != nil {
		writeError(w, 400, "not a chord: "+cerr.Msg)
		return
	}

	key := model.Key{Root: model.Root{Letter: 'C'}}
	if input.Key != "" {
		parsed, ok := directive.ParseKey(input.Key, mode)
		if !ok {
			writeError(w, 400, "not a key: "+input.Key)
			return
		}
		key = parsed
	}

	rc := notation.Resolve(sym, key)

	serveEngineMu.Lock()
	if serveEngine == nil {
		LoadServeState()
	}
	if input.Voicing != "" {
		serveEngine = voicing.New(input.Voicing)
	}
	voiced := serveEngine.Voice(rc)
	serveEngineMu.Unlock()

	json.NewEncoder(w).Encode(model.ChordResponse{
		Name:    rc.Name,
		Notes:   voiced.AllPitches(),
		Bass:    voiced.Bass,
		Session: serveSession,
	})
}

func HandleLibrary(w http.ResponseWriter, r *http.Request) {
	dir := constants.GetMediaDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		writeError(w, 500, "could not read media dir: "+err.Error())
		return
	}

	var filenames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cho", ".crd", ".txt":
			filenames = append(filenames, e.Name())
		}
	}

	metadatas, err := db.GetSongMetadatas(filenames)
	if err != nil {
		// the listing is still useful without the songbook table
		fmt.Printf("Skipping songbook metadata because: %v\n", err)
		metadatas = nil
	}

	res := make([]model.LibraryEntry, 0, len(filenames))
	for _, filename := range filenames {
		entry := model.LibraryEntry{Filename: filename}
		if m, ok := metadatas[filename]; ok {
			meta := m
			entry.Metadata = &meta
		}
		res = append(res, entry)
	}
	json.NewEncoder(w).Encode(res)
}

func serve() {
	LoadServeState()

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/parse", HandleParse).Methods("POST")
	router.HandleFunc("/chord", HandleChord).Methods("POST")
	router.HandleFunc("/library", HandleLibrary).Methods("GET")

	handler := cors.Default().Handler(router)
	log.Fatal(http.ListenAndServe(":8080", handler))
}
