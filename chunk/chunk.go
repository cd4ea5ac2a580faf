// Package chunk stores encoded compositions in size-bounded chunk files.
//
// A chunk file is a little-endian uint32 index length, a gob-encoded
// model.ChunkIndex of byte ranges, then the data section: one gob-encoded
// model.EncodedComposition per key, in key order.
package chunk

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var log = zap.NewNop()

func SetLogger(l *zap.Logger) {
	log = l.Named("chunk")
}

// Writer buffers compositions keyed by path and writes them out as chunks
// on Close, so key ranges never overlap between chunks.
type Writer struct {
	dir       string
	chunkSize int
	encoded   map[string][]byte
}

func NewWriter(dir string, chunkSize int) *Writer {
	return &Writer{dir: dir, chunkSize: chunkSize, encoded: make(map[string][]byte)}
}

func (w *Writer) Add(c model.EncodedComposition) error {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(c); err != nil {
		return errors.Wrapf(err, "could not encode %s", c.Path)
	}
	w.encoded[c.Path] = buf.Bytes()
	return nil
}

func (w *Writer) Len() int {
	return len(w.encoded)
}

func (w *Writer) Close() ([]model.ChunkOverview, error) {
	var size int
	var currKeys []string
	var created []model.ChunkOverview

	sortedKeys := util.GetKeys(w.encoded)
	for i, key := range sortedKeys {
		currKeys = append(currKeys, key)
		// key plus its Pair in the index
		size += len(w.encoded[key]) + len(key) + 8

		if size > w.chunkSize || i == len(sortedKeys)-1 {
			c, err := w.makeChunk(currKeys)
			if err != nil {
				return nil, err
			}
			created = append(created, c)
			size = 0
			currKeys = currKeys[:0]
		}
	}
	w.encoded = make(map[string][]byte)
	return created, nil
}

func (w *Writer) makeChunk(sortedKeys []string) (model.ChunkOverview, error) {
	c := model.ChunkOverview{
		Filename: uuid.New().String() + ".dat",
		First:    sortedKeys[0],
		Last:     sortedKeys[len(sortedKeys)-1],
		Count:    len(sortedKeys),
	}

	index := make(model.ChunkIndex)
	dataBuf := new(bytes.Buffer)
	for _, key := range sortedKeys {
		start := uint32(dataBuf.Len())
		dataBuf.Write(w.encoded[key])
		index[key] = model.Pair{Start: start, End: uint32(dataBuf.Len())}
	}

	indexBuf := new(bytes.Buffer)
	if err := gob.NewEncoder(indexBuf).Encode(index); err != nil {
		return c, errors.Wrap(err, "could not encode chunk index")
	}

	var final bytes.Buffer
	binary.Write(&final, binary.LittleEndian, uint32(indexBuf.Len()))
	final.Write(indexBuf.Bytes())
	final.Write(dataBuf.Bytes())

	path := filepath.Join(w.dir, c.Filename)
	if err := os.WriteFile(path, final.Bytes(), 0644); err != nil {
		return c, errors.Wrap(err, "write failed for chunk file")
	}
	log.Debug("wrote chunk",
		zap.String("file", c.Filename),
		zap.Int("count", c.Count),
		zap.Int("bytes", final.Len()))
	return c, nil
}

// ReadIndex leaves r positioned at the start of the data section.
func ReadIndex(r io.Reader) (model.ChunkIndex, uint32, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, errors.Wrap(err, "could not read index length")
	}
	indexLength := binary.LittleEndian.Uint32(buf)

	buf = make([]byte, indexLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, errors.Wrap(err, "could not read index")
	}

	var index model.ChunkIndex
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&index); err != nil {
		return nil, 0, errors.Wrap(err, "could not decode index")
	}
	return index, indexLength, nil
}

// ReadComposition returns nil without error when the chunk has no such key.
func ReadComposition(path string, key string) (*model.EncodedComposition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open chunk")
	}
	defer f.Close()

	index, _, err := ReadIndex(f)
	if err != nil {
		return nil, err
	}
	p, ok := index[key]
	if !ok {
		return nil, nil
	}

	if _, err := f.Seek(int64(p.Start), io.SeekCurrent); err != nil {
		return nil, errors.Wrap(err, "could not seek")
	}
	var c model.EncodedComposition
	if err := gob.NewDecoder(io.LimitReader(f, int64(p.End-p.Start))).Decode(&c); err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", key)
	}
	return &c, nil
}

// Find looks key up in the one chunk whose range covers it.
func Find(dir string, chunks []model.ChunkOverview, key string) (*model.EncodedComposition, error) {
	for _, c := range chunks {
		if key >= c.First && key <= c.Last {
			return ReadComposition(filepath.Join(dir, c.Filename), key)
		}
	}
	return nil, nil
}
