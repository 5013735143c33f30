package cmd

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/hanoi-lang/hanoi/ir"
)

// nopCloser adapts a cobra command's io.Writer streams (which don't
// implement io.Closer) to exitlog.Logger's io.WriteCloser requirement.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// loadLibrary gob-decodes a Library from path. The gob wire format is this
// CLI's only input format: there is no grammar or parser upstream of it.
func loadLibrary(path string) (*ir.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lib ir.Library
	if err := gob.NewDecoder(f).Decode(&lib); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &lib, nil
}
