// Package download fetches note datasets into a local directory.
package download

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsphweid/scoretensor/constants"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var log = zap.NewNop()

func SetLogger(l *zap.Logger) {
	log = l.Named("download")
}

// ErrNotImplemented is returned by a Downloader that cannot provide a format.
var ErrNotImplemented = errors.New("download not implemented for this dataset")

type Downloader interface {
	Name() string
	DownloadMidi(ctx context.Context, out string) error
	DownloadCSV(ctx context.Context, out string) error
}

// cache is the shared HTTP plumbing: files land under dir/name and are
// never fetched twice.
type cache struct {
	dir    string
	client *http.Client
}

func newCache(dir string, client *http.Client) cache {
	if dir == "" {
		dir = constants.GetCacheDir()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return cache{dir: dir, client: client}
}

func (c cache) fetch(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		log.Debug("already downloaded", zap.String("dest", dest))
		return nil
	}
	log.Info("downloading", zap.String("url", url), zap.String("dest", dest))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "bad request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "get %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("url %s does not exist: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0777); err != nil {
		return errors.Wrap(err, "could not make cache dir")
	}
	// write beside dest so an interrupted download is not mistaken for a cached one
	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "could not create download file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "reading %s", url)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

func extractZip(zipPath, out string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrapf(err, "could not open %s", zipPath)
	}
	defer r.Close()

	root := filepath.Clean(out) + string(os.PathSeparator)
	for _, zf := range r.File {
		dest := filepath.Join(out, zf.Name)
		if !strings.HasPrefix(dest, root) {
			return errors.Errorf("zip entry %s escapes %s", zf.Name, out)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0777); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(zf, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(zf *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0777); err != nil {
		return err
	}
	src, err := zf.Open()
	if err != nil {
		return errors.Wrapf(err, "could not open zip entry %s", zf.Name)
	}
	defer src.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return errors.Wrapf(err, "extracting %s", zf.Name)
	}
	return f.Close()
}

// copyMatching copies every file matching pattern into out, keeping files
// that are already there.
func copyMatching(pattern, out string) (int, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(out, 0777); err != nil {
		return 0, errors.Wrap(err, "could not make output dir")
	}

	var copied int
	for _, src := range matches {
		dest := filepath.Join(out, filepath.Base(src))
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := copyFile(src, dest); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, in); err != nil {
		f.Close()
		return errors.Wrapf(err, "copying %s", src)
	}
	return f.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New returns the named HTTP dataset with default settings.
func New(name string) (Downloader, error) {
	switch name {
	case "ppdd-mono":
		return NewPPDD(true), nil
	case "ppdd-poly":
		return NewPPDD(false), nil
	case "piano-midi":
		return NewPianoMidi(), nil
	}
	return nil, errors.Errorf("unknown dataset %q", name)
}
