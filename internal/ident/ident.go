// Package ident parses and normalizes tool identifiers, specs, and
// aliases per the rules the manifest and dispatcher both rely on:
// case-insensitive comparison with display casing preserved.
package ident

import (
	"fmt"
	"strings"

	"github.com/rokit-build/rokit/internal/model"
)

// knownShortcuts maps a lowercase shorthand tool name to its full
// provider/scope/name, the way original_source/src/util/constants.rs's
// KNOWN_TOOLS table does. Matched case-insensitively in ParseSpecOrShorthand.
var knownShortcuts = buildShortcuts(map[string][]string{
	"evaera":           {"moonwave"},
	"Iron-Stag-Games":  {"lync"},
	"JohnnyMorganz":    {"luau-lsp", "StyLua", "wally-package-types"},
	"Kampfkarren":      {"selene"},
	"luau-lang":        {"luau"},
	"lune-org":         {"lune"},
	"rojo-rbx":         {"remodel", "rojo", "tarmac"},
	"UpliftGames":      {"wally"},
})

func buildShortcuts(byScope map[string][]string) map[string]model.ToolId {
	out := make(map[string]model.ToolId)
	for scope, names := range byScope {
		for _, name := range names {
			out[strings.ToLower(name)] = model.ToolId{
				Provider: model.ProviderGithub,
				Scope:    scope,
				Name:     name,
			}
		}
	}
	return out
}

// LookupShortcut resolves a well-known bare tool name (e.g. "rojo") to its
// full ToolId, matched case-insensitively. Returns false if unknown.
func LookupShortcut(name string) (model.ToolId, bool) {
	id, ok := knownShortcuts[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// isInvalidSegment mirrors original_source/lib/tool/util.rs's
// is_invalid_identifier: a scope/name/version segment must be non-empty,
// contain more than whitespace, and must not contain the separator
// characters ':', '/', '@', nor any other whitespace.
func isInvalidSegment(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	for _, c := range s {
		if c == ':' || c == '/' || c == '@' {
			return true
		}
		if c > 127 {
			return true // reject non-ASCII per §4.1
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			return true
		}
	}
	return false
}

// ParseToolId parses "scope/name" into a ToolId with ProviderGithub.
func ParseToolId(s string) (model.ToolId, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.ToolId{}, fmt.Errorf("tool id is empty")
	}
	before, after, ok := strings.Cut(s, "/")
	if !ok {
		return model.ToolId{}, fmt.Errorf("tool id %q is missing '/' separator", s)
	}
	before = strings.TrimSpace(before)
	after = strings.TrimSpace(after)
	if isInvalidSegment(before) {
		return model.ToolId{}, fmt.Errorf("scope %q is empty or invalid", before)
	}
	if isInvalidSegment(after) {
		return model.ToolId{}, fmt.Errorf("name %q is empty or invalid", after)
	}
	return model.ToolId{Provider: model.ProviderGithub, Scope: before, Name: after}, nil
}

// ParseVersion strips an optional leading "v" per §4.1 and validates that
// what remains is a concrete, non-empty version (no constraints allowed:
// ToolSpec.Version is always fully resolved).
func ParseVersion(s string) (string, error) {
	s = strings.TrimSpace(s)
	if isInvalidSegment(s) {
		return "", fmt.Errorf("version %q is empty or invalid", s)
	}
	return strings.TrimPrefix(s, "v"), nil
}

// ParseSpec parses "scope/name@X.Y.Z" into a ToolSpec.
func ParseSpec(s string) (model.ToolSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.ToolSpec{}, fmt.Errorf("tool spec is empty")
	}
	before, after, ok := strings.Cut(s, "@")
	if !ok {
		return model.ToolSpec{}, fmt.Errorf("tool spec %q is missing '@' version separator", s)
	}
	id, err := ParseToolId(strings.TrimSpace(before))
	if err != nil {
		return model.ToolSpec{}, err
	}
	version, err := ParseVersion(after)
	if err != nil {
		return model.ToolSpec{}, err
	}
	return model.ToolSpec{Id: id, Version: version}, nil
}

// ParseSpecOrShorthand accepts "scope/name", "scope/name@X.Y.Z", or a bare
// shorthand name resolved through the known-tool shortcut table (§4.1).
// When no version is present the returned ToolSpec.Version is empty; the
// caller (orchestrator add/update flow) resolves it against the source.
func ParseSpecOrShorthand(s string) (model.ToolSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.ToolSpec{}, fmt.Errorf("tool spec is empty")
	}
	if strings.Contains(s, "@") {
		return ParseSpec(s)
	}
	if strings.Contains(s, "/") {
		id, err := ParseToolId(s)
		if err != nil {
			return model.ToolSpec{}, err
		}
		return model.ToolSpec{Id: id}, nil
	}
	if id, ok := LookupShortcut(s); ok {
		return model.ToolSpec{Id: id}, nil
	}
	return model.ToolSpec{}, fmt.Errorf("%q is not a known tool shorthand and is not in scope/name form", s)
}

// DefaultAlias returns the alias a ToolId gets when the manifest entry
// does not specify one explicitly: ToolId.Name, in its display casing.
func DefaultAlias(id model.ToolId) model.ToolAlias {
	return model.ToolAlias(id.Name)
}

// AliasesEqual compares two aliases case-insensitively.
func AliasesEqual(a, b model.ToolAlias) bool {
	return a.Lower() == b.Lower()
}
