// Package archive packs generated spreadsheets into one ZIP download.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/listas/internal/core"
)

// FileName is the name offered for the downloaded archive.
const FileName = "listas_processadas.zip"

// ContentType is the MIME type of the archive.
const ContentType = "application/zip"

// Entry is one named payload in the archive.
type Entry struct {
	Name string
	Body io.WriterTo
}

// Build writes every entry, in order, into a Deflate-compressed ZIP and
// returns a reader positioned at the start of the archive.
//
// Entry names that repeat within a batch are made unique with a " (2)",
// " (3)" suffix before the extension. The first failing entry aborts the
// whole build.
func Build(entries []Entry) (*bytes.Reader, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Now()

	names := UniqueNames(entryNames(entries))
	for i, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     names[i],
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %w", core.ErrArchive, names[i], err)
		}
		if _, err := e.Body.WriteTo(w); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %w", core.ErrArchive, names[i], err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrArchive, err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// UniqueNames returns names with duplicates suffixed so every name is
// distinct. Comparison is case-insensitive since most unzip targets are.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))

	for i, name := range names {
		candidate := name
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			candidate = withSuffix(name, n)
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func withSuffix(name string, n int) string {
	ext := ""
	if i := strings.LastIndex(name, "."); i > 0 {
		name, ext = name[:i], name[i:]
	}
	return name + " (" + strconv.Itoa(n) + ")" + ext
}

func entryNames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
