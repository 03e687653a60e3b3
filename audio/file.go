// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// FileFactory decodes an in-memory encoded file on every CreateReader call.
type FileFactory struct {
	name    string
	data    []byte
	decoder Decoder
}

// NewFileFactory returns a factory decoding data with d.
func NewFileFactory(data []byte, d Decoder) *FileFactory {
	return &FileFactory{name: "memory", data: data, decoder: d}
}

// OpenFile reads path and picks the decoder registered for its extension.
func OpenFile(path string, reg *Registry) (*FileFactory, error) {
	format := FormatFromPath(path)
	d, ok := reg.Get(format)
	if !ok {
		return nil, NewError(KindFile, ErrNoDecoder, "open %s (%s)", path, format)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindFile, err, "open %s", path)
	}

	return &FileFactory{name: path, data: data, decoder: d}, nil
}

// FormatFromPath returns the registry key for a file name extension.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "oga", "ogv":
		return "ogg"
	case "aif", "aifc":
		return "aiff"
	case "wave":
		return "wav"
	}
	return ext
}

func (f *FileFactory) CreateReader() (Reader, error) {
	open := func() (Source, error) {
		return f.decoder.Decode(bytes.NewReader(f.data))
	}

	src, err := open()
	if err != nil {
		return nil, NewError(KindFile, err, "decode %s", f.name)
	}
	if !src.Specs().Valid() {
		_ = src.Close()
		return nil, NewError(KindFile, ErrInvalidSpecs, "decode %s", f.name)
	}

	r := NewSourceReader(src)
	r.reopen = open
	return r, nil
}
