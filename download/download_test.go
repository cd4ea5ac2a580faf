package download

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeZip(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func listDir(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var res []string
	for _, e := range entries {
		res = append(res, e.Name())
	}
	return res
}

func TestPPDD(t *testing.T) {
	archive := makeZip(t, map[string]string{
		"PPDD-Sep2018_sym_mono_small/prime_midi/a.mid":     "midi a",
		"PPDD-Sep2018_sym_mono_small/prime_csv/a.csv":      "csv a",
		"PPDD-Sep2018_sym_mono_small/cont_true_midi/b.mid": "midi b",
	})
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Path != "/PPDD-Sep2018_sym_mono_small.zip" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	p := NewPPDD(true)
	p.Sizes = []string{"small"}
	p.BaseURL = srv.URL
	p.CacheDir = t.TempDir()
	assert.Equal(t, "PPDDSept2018_mono", p.Name())

	midiOut := t.TempDir()
	require.NoError(t, p.DownloadMidi(context.Background(), midiOut))
	assert.Equal(t, []string{"a.mid"}, listDir(t, midiOut))
	content, err := os.ReadFile(filepath.Join(midiOut, "a.mid"))
	require.NoError(t, err)
	assert.Equal(t, "midi a", string(content))

	csvOut := t.TempDir()
	require.NoError(t, p.DownloadCSV(context.Background(), csvOut))
	assert.Equal(t, []string{"a.csv"}, listDir(t, csvOut))
	// the archive is cached
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	p.Sizes = []string{"large"}
	err = p.DownloadMidi(context.Background(), midiOut)
	assert.ErrorContains(t, err, "does not exist")
}

func TestPianoMidi(t *testing.T) {
	archive := makeZip(t, map[string]string{"bach_846.mid": "bach"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/zip/bach.zip":
			w.Write(archive)
		case "/midis/moszkowski/mos_op36_6.mid":
			w.Write([]byte("mos"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewPianoMidi()
	p.Composers = []string{"bach", "moszkowski"}
	p.BaseURL = srv.URL
	p.CacheDir = t.TempDir()
	p.Delay = 0

	out := t.TempDir()
	require.NoError(t, p.DownloadMidi(context.Background(), out))
	assert.Equal(t, []string{"bach_846.mid", "mos_op36_6.mid"}, listDir(t, out))

	assert.True(t, errors.Is(p.DownloadCSV(context.Background(), out), ErrNotImplemented))
}

func TestPianoMidiURLs(t *testing.T) {
	p := NewPianoMidi()
	p.Composers = []string{"clementi", "rachmaninov", "chopin"}
	urls, err := p.urls()
	require.NoError(t, err)
	assert.Len(t, urls, 17+10+1)
	assert.Contains(t, urls, pianoMidiBaseURL+"/midis/rachmaninow/rac_op23_5.mid")
	assert.Contains(t, urls, pianoMidiBaseURL+"/zip/chopin.zip")
	assert.NotContains(t, urls, pianoMidiBaseURL+"/midis/clementi/clementi_opus36_6_3.mid")

	_, err = composerMidiNames("chopin")
	assert.True(t, errors.Is(err, ErrNotImplemented))
}

func TestPianoMidiCancelled(t *testing.T) {
	p := NewPianoMidi()
	p.CacheDir = t.TempDir()
	p.BaseURL = "http://127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.DownloadMidi(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractZipRejectsEscapes(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(zipPath, makeZip(t, map[string]string{"../evil.mid": "x"}), 0644))
	err := extractZip(zipPath, filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "escapes")
}

func TestNew(t *testing.T) {
	d, err := New("ppdd-poly")
	require.NoError(t, err)
	assert.Equal(t, "PPDDSept2018_poly", d.Name())

	_, err = New("nope")
	assert.Error(t, err)
}

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Name>notes</Name><Prefix>set/</Prefix><KeyCount>3</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>
<Contents><Key>set/a.mid</Key><Size>6</Size></Contents>
<Contents><Key>set/b.csv</Key><Size>5</Size></Contents>
<Contents><Key>set/readme.txt</Key><Size>1</Size></Contents>
</ListBucketResult>`

func TestS3(t *testing.T) {
	objects := map[string]string{
		"/notes/set/a.mid": "midi a",
		"/notes/set/b.csv": "csv b",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/notes" || r.URL.Path == "/notes/" {
			assert.Equal(t, "set/", r.URL.Query().Get("prefix"))
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(listResponse))
			return
		}
		body, ok := objects[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.Header().Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", len(body)-1, len(body)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(srv.URL),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials("id", "secret", ""),
	})
	require.NoError(t, err)

	s := &S3{Bucket: "notes", Prefix: "set/", Session: sess}
	assert.Equal(t, "s3://notes/set", s.Name())

	out := t.TempDir()
	require.NoError(t, s.DownloadMidi(context.Background(), out))
	assert.Equal(t, []string{"a.mid"}, listDir(t, out))

	require.NoError(t, s.DownloadCSV(context.Background(), out))
	content, err := os.ReadFile(filepath.Join(out, "b.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "csv"))
}
