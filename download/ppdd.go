package download

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const ppddBaseURL = "http://tomcollinsresearch.net/research/data/mirex/ppdd/ppdd-sep2018"

// PPDD is the Patterns for Prediction Development Dataset (September 2018),
// https://www.music-ir.org/mirex/wiki/2019:Patterns_for_Prediction
type PPDD struct {
	Monophonic bool
	Sizes      []string
	BaseURL    string
	CacheDir   string
	Client     *http.Client
	// remove the cached archives after copying
	Clean bool
}

func NewPPDD(monophonic bool) *PPDD {
	return &PPDD{
		Monophonic: monophonic,
		Sizes:      []string{"small", "medium", "large"},
		BaseURL:    ppddBaseURL,
	}
}

func (p *PPDD) Name() string {
	if p.Monophonic {
		return "PPDDSept2018_mono"
	}
	return "PPDDSept2018_poly"
}

func (p *PPDD) phonic() string {
	if p.Monophonic {
		return "mono"
	}
	return "poly"
}

func (p *PPDD) archives() []string {
	var res []string
	for _, size := range p.Sizes {
		res = append(res, fmt.Sprintf("PPDD-Sep2018_sym_%s_%s", p.phonic(), size))
	}
	return res
}

// fetchAll downloads and extracts every archive, returning the extracted
// directories.
func (p *PPDD) fetchAll(ctx context.Context) ([]string, error) {
	c := newCache(p.CacheDir, p.Client)
	base := filepath.Join(c.dir, p.Name())

	var dirs []string
	for _, archive := range p.archives() {
		zipPath := filepath.Join(base, archive+".zip")
		url := strings.TrimSuffix(p.BaseURL, "/") + "/" + archive + ".zip"
		if err := c.fetch(ctx, url, zipPath); err != nil {
			return nil, err
		}

		extracted := filepath.Join(base, archive)
		if _, err := os.Stat(extracted); err != nil {
			if err := extractZip(zipPath, base); err != nil {
				return nil, err
			}
		}
		dirs = append(dirs, extracted)
	}
	return dirs, nil
}

func (p *PPDD) download(ctx context.Context, out, subdir, ext string) error {
	dirs, err := p.fetchAll(ctx)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		n, err := copyMatching(filepath.Join(dir, subdir, "*"+ext), out)
		if err != nil {
			return errors.Wrapf(err, "copying from %s", dir)
		}
		log.Info("copied", zap.String("from", dir), zap.Int("files", n))
	}

	if p.Clean {
		c := newCache(p.CacheDir, p.Client)
		return os.RemoveAll(filepath.Join(c.dir, p.Name()))
	}
	return nil
}

func (p *PPDD) DownloadMidi(ctx context.Context, out string) error {
	return p.download(ctx, out, "prime_midi", ".mid")
}

func (p *PPDD) DownloadCSV(ctx context.Context, out string) error {
	return p.download(ctx, out, "prime_csv", ".csv")
}
