package manifest

import (
	"strings"

	"github.com/rokit-build/rokit/internal/model"
)

// Entry is one alias/spec pair in manifest order.
type Entry struct {
	Alias model.ToolAlias
	Spec  model.ToolSpec
}

// Manifest is an ordered alias -> spec mapping loaded from one file, plus
// the raw bytes needed to make format-preserving edits.
type Manifest struct {
	Path    string
	Entries []Entry
	raw     []byte
}

// Get looks up an alias case-insensitively.
func (m *Manifest) Get(alias string) (model.ToolSpec, bool) {
	lower := strings.ToLower(alias)
	for _, e := range m.Entries {
		if e.Alias.Lower() == lower {
			return e.Spec, true
		}
	}
	return model.ToolSpec{}, false
}

// HasAlias reports whether alias is already present, case-insensitively.
func (m *Manifest) HasAlias(alias model.ToolAlias) bool {
	_, ok := m.Get(string(alias))
	return ok
}

// Aliases returns the manifest's aliases in file order.
func (m *Manifest) Aliases() []model.ToolAlias {
	out := make([]model.ToolAlias, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Alias
	}
	return out
}
