//go:build e2e
// +build e2e

package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/scoretensor/cmd"
	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/corpus"
	"github.com/jsphweid/scoretensor/model"
	"github.com/stretchr/testify/assert"
)

var media = map[string]string{
	"a.csv":     "onset,pitch,dur\n0,60,1\n1,64,1\n2,67,2\n",
	"b.csv":     "onset,track,pitch,dur\n0,0,60,1\n0,1,48,4\n",
	"sub/c.csv": "0,62,0.5\n0.5,62,0.5\n",
	"bad.csv":   "onset,pitch,dur\n0,60,2\n1,60,1\n",
}

func TestMain(m *testing.M) {
	root, err := os.MkdirTemp("", "scoretensor-e2e")
	if err != nil {
		panic(err.Error())
	}
	defer os.RemoveAll(root)

	mediaDir := filepath.Join(root, "media")
	for name, content := range media {
		path := filepath.Join(mediaDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
			panic(err.Error())
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			panic(err.Error())
		}
	}

	opts := corpus.DefaultOptions()
	opts.Divisions = 4
	opts.Command = command.Config{Pitches: model.FullPitchRange(), FrameLength: 0.25, MaxShift: 1}
	outDir := filepath.Join(root, "out")
	if err := cmd.Index(context.Background(), mediaDir, outDir, 0, opts); err != nil {
		panic(err.Error())
	}
	if err := cmd.LoadServeFiles(outDir); err != nil {
		panic(err.Error())
	}

	exitVal := m.Run()

	os.RemoveAll(root)
	os.Exit(exitVal)
}

func getComposition(t *testing.T, path string) (int, model.EncodedComposition) {
	req := httptest.NewRequest(http.MethodGet, "/compositions?path="+path, nil)
	w := httptest.NewRecorder()
	cmd.NewRouter().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	var c model.EncodedComposition
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, &c); err != nil {
			panic(err.Error())
		}
	}
	return resp.StatusCode, c
}

func TestIndexedCompositionE2E(t *testing.T) {
	assert := assert.New(t)
	status, c := getComposition(t, "a.csv")
	assert.Equal(http.StatusOK, status)
	assert.Equal(3, c.NumNotes)
	assert.Equal([]int{0}, c.Monophonic)
	assert.Equal([4]int{1, 2, 128, 16}, c.Shape)
	assert.Len(c.Pianoroll, 2*128*16)
}

func TestIndexedNestedPathE2E(t *testing.T) {
	status, c := getComposition(t, filepath.Join("sub", "c.csv"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, c.NumNotes)
}

func TestInvalidFileSkippedE2E(t *testing.T) {
	status, _ := getComposition(t, "bad.csv")
	assert.Equal(t, http.StatusNotFound, status)
}
