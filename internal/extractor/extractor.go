// Package extractor opens a downloaded artifact according to its detected
// archive format and yields the single executable candidate that matches
// both the expected tool name and the host's binary kind.
package extractor

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
)

// candidateEntry is one file found inside an archive (or the plain/gz
// payload itself) that passed the entry-name policy.
type candidateEntry struct {
	path string // archive-relative path, forward-slash separated
	data []byte
}

// Extract opens raw according to format and returns the single best
// executable candidate's bytes for toolName on host. Entry names with
// ".." segments or absolute roots are rejected before any other check.
func Extract(raw []byte, format model.Format, toolName string, host model.HostDescriptor) ([]byte, model.BinaryKind, error) {
	var entries []candidateEntry
	var err error

	switch format {
	case model.FormatZip:
		entries, err = readZip(raw)
	case model.FormatTar:
		entries, err = readTar(bytes.NewReader(raw))
	case model.FormatTarGz:
		entries, err = readTarGz(raw)
	case model.FormatGz:
		entries, err = readGz(raw)
	case model.FormatPlain:
		entries = []candidateEntry{{path: toolName, data: raw}}
	default:
		return nil, "", fmt.Errorf("unknown archive format %q", format)
	}
	if err != nil {
		return nil, "", rerr.New(rerr.KindArchiveCorrupt, "extractor.Extract", err)
	}

	qualified := filterByBinaryKind(entries, host)
	if len(qualified) == 0 {
		return nil, "", rerr.New(rerr.KindNoExecutableInArchive, "extractor.Extract",
			fmt.Errorf("no entry in archive matches the expected binary kind for %s/%s", host.OS, host.Arch))
	}

	best := pickCandidate(qualified, toolName)
	return best.entry.data, best.kind, nil
}

// readZip iterates the central directory and rejects unsafe entry names.
func readZip(raw []byte) ([]candidateEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	var out []candidateEntry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !safeEntryName(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %s: %w", f.Name, err)
		}
		out = append(out, candidateEntry{path: f.Name, data: data})
	}
	return out, nil
}

func readTarGz(raw []byte) ([]candidateEntry, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gzr.Close()
	return readTar(gzr)
}

func readTar(r io.Reader) ([]candidateEntry, error) {
	tr := tar.NewReader(r)
	var out []candidateEntry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !safeEntryName(hdr.Name) {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read tar entry %s: %w", hdr.Name, err)
		}
		out = append(out, candidateEntry{path: hdr.Name, data: data})
	}
	return out, nil
}

// readGz treats the decompressed stream itself as the binary; its name is
// the original name recorded in the gzip header, or "binary" when the
// header has none. The asset's own filename is not consulted.
func readGz(raw []byte) ([]candidateEntry, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gzr.Close()
	data, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}
	name := gzr.Name
	if name == "" {
		name = "binary"
	}
	return []candidateEntry{{path: name, data: data}}, nil
}

// safeEntryName rejects ".." traversal segments and absolute paths.
func safeEntryName(name string) bool {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(clean) {
		return false
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
