package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rokit-build/rokit/internal/ident"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
)

// rawDoc decodes the [tools] table generically: a value is either a plain
// "scope/name@version" string, or a Foreman-style inline table
// { source = "...", version = "..." }.
type rawDoc struct {
	Tools map[string]interface{} `toml:"tools"`
}

var toolsHeaderRe = regexp.MustCompile(`^\s*\[\s*tools\s*\]\s*$`)
var anySectionHeaderRe = regexp.MustCompile(`^\s*\[`)
var toolKeyRe = regexp.MustCompile(`^\s*([A-Za-z0-9_\-]+)\s*=`)

// Load reads and parses a manifest file. A missing [tools] table yields an
// empty, non-error Manifest. Foreman/Aftman entries naming a non-GitHub
// provider are dropped with a warning rather than failing the whole load.
func Load(path string) (*Manifest, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, rerr.New(rerr.KindManifestIO, "manifest.Load", err)
	}

	var doc rawDoc
	if _, err := toml.Decode(string(raw), &doc); err != nil {
		return nil, nil, rerr.New(rerr.KindManifestParse, "manifest.Load", err)
	}

	order, lineOf := scanToolsOrder(raw)

	m := &Manifest{Path: path, raw: raw}
	seen := make(map[string]bool, len(order))
	var warnings []string

	for _, key := range order {
		val, ok := doc.Tools[key]
		if !ok {
			continue // key was commented out or otherwise not decoded
		}
		spec, warn, err := decodeToolValue(key, val)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s:%d: %v", path, lineOf[key], err))
			continue
		}
		if warn != "" {
			warnings = append(warnings, warn)
			continue
		}
		alias := model.ToolAlias(key)
		lower := alias.Lower()
		if seen[lower] {
			return nil, warnings, rerr.New(rerr.KindManifestParse, "manifest.Load",
				fmt.Errorf("duplicate alias %q (case-insensitive) in %s", key, path))
		}
		seen[lower] = true
		m.Entries = append(m.Entries, Entry{Alias: alias, Spec: spec})
	}

	return m, warnings, nil
}

// decodeToolValue interprets one [tools] value, which is either a plain
// "scope/name@version" string or a Foreman-style inline table. Returns a
// non-empty warn string (and no error) when the entry must be dropped per
// the Foreman/Aftman compatibility rule rather than fail the whole manifest.
func decodeToolValue(alias string, val interface{}) (model.ToolSpec, string, error) {
	switch v := val.(type) {
	case string:
		spec, err := ident.ParseSpec(v)
		if err != nil {
			return model.ToolSpec{}, "", rerr.New(rerr.KindSpecParse, "manifest.decodeToolValue", err)
		}
		return spec, "", nil
	case map[string]interface{}:
		return decodeForemanEntry(alias, v)
	default:
		return model.ToolSpec{}, "", fmt.Errorf("alias %q has an unsupported value type", alias)
	}
}

// scanToolsOrder walks the raw file line by line to recover the original
// declaration order of [tools] keys (and their line numbers for warnings),
// since TOML table decoding does not preserve source order.
func scanToolsOrder(raw []byte) ([]string, map[string]int) {
	var order []string
	lineOf := make(map[string]int)

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	inTools := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if toolsHeaderRe.MatchString(line) {
			inTools = true
			continue
		}
		if anySectionHeaderRe.MatchString(line) {
			inTools = false
			continue
		}
		if !inTools {
			continue
		}
		if m := toolKeyRe.FindStringSubmatch(line); m != nil {
			key := m[1]
			order = append(order, key)
			lineOf[key] = lineNo
		}
	}
	return order, lineOf
}
