package waste

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNoModel is returned by a ModelStore that holds no bundle yet.
var ErrNoModel = eris.New("waste: no persisted model")

// ModelStore persists trained bundles.
type ModelStore interface {
	Load() (*Bundle, error)
	Save(b *Bundle) error
}

// FileModelStore keeps a single msgpack-encoded bundle on disk.
type FileModelStore struct {
	Path string
}

// NewFileModelStore returns a store backed by path.
func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{Path: path}
}

// Load reads and validates the bundle at Path.
func (s *FileModelStore) Load() (*Bundle, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoModel
	}
	if err != nil {
		return nil, eris.Wrapf(err, "waste: read model %s", s.Path)
	}

	b, err := DecodeBundle(data)
	if err != nil {
		return nil, eris.Wrapf(err, "waste: load model %s", s.Path)
	}
	return b, nil
}

// Save writes b to a temporary file beside Path and renames it into place,
// so a reader never sees a partial bundle.
func (s *FileModelStore) Save(b *Bundle) error {
	data, err := EncodeBundle(b)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "waste: create model dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "waste: create temp model file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "waste: write model")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "waste: close model")
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return eris.Wrapf(err, "waste: install model %s", s.Path)
	}
	return nil
}

// EncodeBundle serializes b as msgpack keyed by the json field names.
func EncodeBundle(b *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(b); err != nil {
		return nil, eris.Wrap(err, "waste: encode bundle")
	}
	return buf.Bytes(), nil
}

// DecodeBundle parses and validates a bundle produced by EncodeBundle.
func DecodeBundle(data []byte) (*Bundle, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, eris.Wrap(err, "waste: decode bundle")
	}
	if err := b.prepare(); err != nil {
		return nil, err
	}
	return &b, nil
}
