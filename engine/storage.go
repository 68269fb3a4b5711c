package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Persisted stores are plain JSON, or zstd-compressed JSON when the path
// carries a .zst suffix. Files are rewritten wholesale on save.

func loadJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return errors.Wrap(err, "creating zstd reader")
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return errors.Wrapf(err, "decompressing %s", path)
		}
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decoding %s", path)
}

func saveJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return errors.Wrap(err, "creating zstd writer")
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "closing zstd writer")
		}
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
