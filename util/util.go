package util

import (
	"encoding/gob"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

var (
	MidiExtensions = []string{".mid", ".midi"}
	CSVExtensions  = []string{".csv"}
	NoteExtensions = []string{".mid", ".midi", ".csv"}
)

func RecreateDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(err, "could not clear dir")
	}
	return errors.Wrap(os.MkdirAll(dir, 0777), "could not create dir")
}

// GatherAllPaths walks root for files with one of exts, in lexical order.
// maxNum 0 means no limit.
func GatherAllPaths(root string, exts []string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if maxNum != 0 && len(res) >= maxNum {
			return filepath.SkipDir
		}
		if !d.IsDir() && slices.Contains(exts, strings.ToLower(filepath.Ext(s))) {
			res = append(res, s)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, errors.Wrapf(err, "error walking %s", root)
	}
	return res, nil
}

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func CreateBinary(filename string, data any) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "couldn't create file %s", filename)
	}
	if err := gob.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "couldn't encode %s", filename)
	}
	return f.Close()
}

func ReadBinary[A any](path string) (A, error) {
	var data A
	f, err := os.Open(path)
	if err != nil {
		return data, errors.Wrap(err, "could not load binary file")
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return data, errors.Wrapf(err, "could not decode binary file %s", path)
	}
	return data, nil
}

func Sum[A constraints.Integer](nums []A) uint64 {
	var total uint64
	for _, v := range nums {
		total += uint64(v)
	}
	return total
}
