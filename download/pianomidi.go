package download

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

const pianoMidiBaseURL = "http://www.piano-midi.de"

var pianoMidiComposers = []string{
	"albeniz", "bach", "balakir", "beeth", "borodin", "brahms", "burgm",
	"chopin", "clementi", "debussy", "godowsky", "granados", "grieg", "haydn",
	"liszt", "mendelssohn", "moszkowski", "mozart", "muss", "rachmaninov",
	"ravel", "schubert", "schumann", "sinding", "tchai",
}

// composers published as single files only
var pianoMidiNonZips = []string{"clementi", "godowsky", "moszkowski", "rachmaninov", "ravel", "sinding"}

// PianoMidi is the piano-midi.de collection. It has no CSV form.
type PianoMidi struct {
	Composers []string
	BaseURL   string
	CacheDir  string
	Client    *http.Client
	// pause between requests to go easy on the server
	Delay time.Duration
	Clean bool
}

func NewPianoMidi() *PianoMidi {
	return &PianoMidi{
		Composers: pianoMidiComposers,
		BaseURL:   pianoMidiBaseURL,
		Delay:     time.Second,
	}
}

func (p *PianoMidi) Name() string {
	return "PianoMidi"
}

func composerMidiNames(composer string) ([]string, error) {
	var names []string
	switch composer {
	case "clementi":
		for number := 1; number <= 6; number++ {
			for movement := 1; movement <= 3; movement++ {
				if number == 6 && movement == 3 {
					continue
				}
				names = append(names, fmt.Sprintf("clementi_opus36_%d_%d", number, movement))
			}
		}
	case "godowsky":
		names = []string{"god_chpn_op10_e01", "god_alb_esp2"}
	case "moszkowski":
		names = []string{"mos_op36_6"}
	case "rachmaninov":
		opus := []int{3, 23, 32, 33}
		numbers := [][]int{{2}, {2, 3, 5, 7}, {1, 13}, {5, 6, 8}}
		for i, op := range opus {
			for _, no := range numbers[i] {
				names = append(names, fmt.Sprintf("rac_op%d_%d", op, no))
			}
		}
	case "ravel":
		names = []string{"rav_eau", "ravel_miroirs_1", "rav_ondi", "rav_gib", "rav_scarbo"}
	case "sinding":
		names = []string{"fruehlingsrauschen"}
	default:
		return nil, errors.Wrapf(ErrNotImplemented, "composer %s", composer)
	}
	return names, nil
}

func (p *PianoMidi) urls() ([]string, error) {
	base := strings.TrimSuffix(p.BaseURL, "/")
	var res []string
	for _, composer := range p.Composers {
		if !slices.Contains(pianoMidiNonZips, composer) {
			res = append(res, fmt.Sprintf("%s/zip/%s.zip", base, composer))
			continue
		}
		names, err := composerMidiNames(composer)
		if err != nil {
			return nil, err
		}
		subdir := composer
		if composer == "rachmaninov" {
			subdir = "rachmaninow"
		}
		for _, name := range names {
			res = append(res, fmt.Sprintf("%s/midis/%s/%s.mid", base, subdir, name))
		}
	}
	return res, nil
}

func (p *PianoMidi) DownloadMidi(ctx context.Context, out string) error {
	urls, err := p.urls()
	if err != nil {
		return err
	}

	c := newCache(p.CacheDir, p.Client)
	base := filepath.Join(c.dir, p.Name())
	midiDir := filepath.Join(base, "midis")
	dirs := []string{midiDir}

	for i, url := range urls {
		if i > 0 {
			if err := sleep(ctx, p.Delay); err != nil {
				return err
			}
		}
		filename := url[strings.LastIndex(url, "/")+1:]
		if !strings.HasSuffix(filename, ".zip") {
			if err := c.fetch(ctx, url, filepath.Join(midiDir, filename)); err != nil {
				return err
			}
			continue
		}

		zipPath := filepath.Join(base, filename)
		if err := c.fetch(ctx, url, zipPath); err != nil {
			return err
		}
		extracted := filepath.Join(base, strings.TrimSuffix(filename, ".zip"))
		if err := extractZip(zipPath, extracted); err != nil {
			return err
		}
		dirs = append(dirs, extracted)
	}

	for _, dir := range dirs {
		if _, err := copyMatching(filepath.Join(dir, "*.mid"), out); err != nil {
			return errors.Wrapf(err, "copying from %s", dir)
		}
	}
	if p.Clean {
		return os.RemoveAll(base)
	}
	return nil
}

func (p *PianoMidi) DownloadCSV(ctx context.Context, out string) error {
	return ErrNotImplemented
}
