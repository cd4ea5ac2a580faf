package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jsphweid/scoretensor/chunk"
	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/composition"
	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/file"
	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/overlap"
	"github.com/jsphweid/scoretensor/util"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr string
	serveDir  string
	allChunks []model.ChunkOverview
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveDir, "out", constants.GetIndexDir(), "index directory served by /compositions (INDEX_PATH)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the encode and decode HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := LoadServeFiles(serveDir); err != nil {
			logger.Warn("serving without an index", zap.Error(err))
		}
		logger.Info("listening", zap.String("addr", serveAddr))
		return http.ListenAndServe(serveAddr, NewRouter())
	},
}

// LoadServeFiles loads the chunk overviews written by index.
func LoadServeFiles(dir string) error {
	chunks, err := util.ReadBinary[[]model.ChunkOverview](filepath.Join(dir, constants.AllChunksFilename))
	if err != nil {
		return err
	}
	serveDir = dir
	allChunks = chunks
	return nil
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/encode/command", HandleEncodeCommand).Methods("POST")
	router.HandleFunc("/encode/pianoroll", HandleEncodePianoroll).Methods("POST")
	router.HandleFunc("/decode/command", HandleDecodeCommand).Methods("POST")
	router.HandleFunc("/compositions", HandleComposition).Methods("GET")
	return cors.Default().Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// commandConfig reads frame_length and max_shift.
func commandConfig(r *http.Request) (command.Config, error) {
	cfg := command.DefaultConfig()
	var err error
	if cfg.FrameLength, err = queryFloat(r, "frame_length", cfg.FrameLength); err != nil {
		return cfg, err
	}
	if cfg.MaxShift, err = queryFloat(r, "max_shift", cfg.MaxShift); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// readComposition parses a CSV body, forcing monophony when monophonic=true.
func readComposition(r *http.Request) (*composition.Composition, []model.Diagnostic, error) {
	t, err := file.ReadNoteCSV(r.Body, file.DefaultReadOptions())
	if err != nil {
		return nil, nil, err
	}
	var diags []model.Diagnostic
	if r.URL.Query().Get("monophonic") == "true" {
		if t, diags, err = overlap.ForceMonophonic(t, overlap.DefaultOptions()); err != nil {
			return nil, nil, err
		}
	}
	return composition.FromTable(t, "request"), diags, nil
}

func HandleEncodeCommand(w http.ResponseWriter, r *http.Request) {
	cfg, err := commandConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, err := cfg.Vocab()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, diags, err := readComposition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s, streamDiags, err := c.EventStream(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, model.EncodeCommandResponse{
		Tokens:      s.Tokens,
		StartFrame:  s.StartFrame,
		VocabSize:   v.Size(),
		Diagnostics: append(diags, streamDiags...),
	})
}

func HandleEncodePianoroll(w http.ResponseWriter, r *http.Request) {
	divisions, err := queryInt(r, "divisions", constants.DefaultDivisions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pitches := model.FullPitchRange()
	if pitches.Min, err = queryInt(r, "min_pitch", pitches.Min); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if pitches.Max, err = queryInt(r, "max_pitch", pitches.Max); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, diags, err := readComposition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	roll, rollDiags, err := c.Pianoroll(divisions, pitches)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data := make([]int, len(roll.Data))
	for i, v := range roll.Data {
		data[i] = int(v)
	}
	writeJSON(w, http.StatusOK, model.EncodePianorollResponse{
		Shape:       roll.Shape(),
		Tracks:      roll.Tracks,
		Data:        data,
		Diagnostics: append(diags, rollDiags...),
	})
}

// HandleDecodeCommand answers with the decoded notes as CSV.
func HandleDecodeCommand(w http.ResponseWriter, r *http.Request) {
	cfg, err := commandConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req model.DecodeCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	q, err := command.Decode(&command.Stream{Tokens: req.Tokens, StartFrame: req.StartFrame}, cfg)
	if err != nil {
		var malformed *command.MalformedStreamError
		status := http.StatusBadRequest
		if errors.As(err, &malformed) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	t, err := q.Units()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := file.WriteNoteCSV(w, t); err != nil {
		logger.Error("writing csv response", zap.Error(err))
	}
}

func HandleComposition(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("path")
	res, err := chunk.Find(serveDir, allChunks, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, errors.New("no composition at "+key))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
