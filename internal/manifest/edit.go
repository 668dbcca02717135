package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
)

// Add inserts alias = "spec" into the [tools] table, preserving every
// other line byte-for-byte. If [tools] does not exist yet, it is appended.
// Returns ManifestParse if alias already exists case-insensitively.
func (m *Manifest) Add(alias model.ToolAlias, spec model.ToolSpec) error {
	if m.HasAlias(alias) {
		return rerr.New(rerr.KindManifestParse, "manifest.Add",
			fmt.Errorf("alias %q already exists (case-insensitively)", alias))
	}

	lines, tableStart, tableEnd := toolsTableBounds(m.raw)
	newLine := fmt.Sprintf("%s = %q", alias, spec.String())

	var out []string
	switch {
	case tableStart == -1:
		// No [tools] table yet: append one, with a blank-line separator if
		// the file is non-empty.
		out = append(out, lines...)
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, "[tools]", newLine)
	default:
		out = append(out, lines[:tableEnd]...)
		out = append(out, newLine)
		out = append(out, lines[tableEnd:]...)
	}

	m.raw = []byte(strings.Join(out, "\n") + "\n")
	m.Entries = append(m.Entries, Entry{Alias: alias, Spec: spec})
	return nil
}

// Remove deletes alias's line from the [tools] table, preserving every
// other line. Returns false if alias was not present.
func (m *Manifest) Remove(alias model.ToolAlias) bool {
	lower := alias.Lower()
	idx := -1
	for i, e := range m.Entries {
		if e.Alias.Lower() == lower {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	lines := strings.Split(strings.TrimSuffix(string(m.raw), "\n"), "\n")
	inTools := false
	var out []string
	for _, line := range lines {
		if toolsHeaderRe.MatchString(line) {
			inTools = true
			out = append(out, line)
			continue
		}
		if anySectionHeaderRe.MatchString(line) {
			inTools = false
			out = append(out, line)
			continue
		}
		if inTools {
			if km := toolKeyRe.FindStringSubmatch(line); km != nil && strings.EqualFold(km[1], string(alias)) {
				continue // drop this line
			}
		}
		out = append(out, line)
	}

	m.raw = []byte(strings.Join(out, "\n") + "\n")
	m.Entries = append(m.Entries[:idx], m.Entries[idx+1:]...)
	return true
}

// Serialize returns the current raw bytes, edited in place by Add/Remove
// while preserving everything else in the file.
func (m *Manifest) Serialize() []byte {
	return append([]byte(nil), m.raw...)
}

// Save writes the manifest's current bytes back to its Path.
func (m *Manifest) Save() error {
	if err := os.WriteFile(m.Path, m.raw, 0o644); err != nil {
		return rerr.New(rerr.KindManifestIO, "manifest.Save", err)
	}
	return nil
}

// NewEmpty creates an unsaved manifest at path holding only an empty
// [tools] table.
func NewEmpty(path string) *Manifest {
	return &Manifest{Path: path, raw: []byte("[tools]\n")}
}

// toolsTableBounds locates the [tools] table in raw, returning the file
// split into lines plus the line index range [tableStart, tableEnd) the
// table's key lines occupy. tableStart is -1 if no [tools] table exists.
func toolsTableBounds(raw []byte) (lines []string, tableStart, tableEnd int) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	tableStart = -1
	for i, line := range lines {
		if toolsHeaderRe.MatchString(line) {
			tableStart = i + 1
			break
		}
	}
	if tableStart == -1 {
		return lines, -1, -1
	}

	tableEnd = tableStart
	for tableEnd < len(lines) && !anySectionHeaderRe.MatchString(lines[tableEnd]) {
		tableEnd++
	}
	return lines, tableStart, tableEnd
}
