package manifest

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rokit-build/rokit/internal/ident"
	"github.com/rokit-build/rokit/internal/model"
)

// noWhitespaceRe rejects a source string containing any embedded
// whitespace. Foreman's source grammar is loose enough (free-form
// "provider#owner/repo" strings lifted straight from TOML) that stdlib
// regexp's RE2 engine can't express the "reject if whitespace appears
// anywhere" check as a single lookahead the way regexp2 can.
var noWhitespaceRe = regexp2.MustCompile(`^(?!.*\s).+$`, regexp2.None)

// decodeForemanEntry interprets a Foreman/Aftman inline-table tool entry:
// { source = "[provider#]owner/repo", version = "X.Y.Z" }. A source naming
// a provider other than GitHub is dropped with a warning rather than
// failing the manifest load, per the compatibility rule.
func decodeForemanEntry(alias string, tbl map[string]interface{}) (model.ToolSpec, string, error) {
	sourceRaw, _ := tbl["source"].(string)
	versionRaw, _ := tbl["version"].(string)
	if sourceRaw == "" || versionRaw == "" {
		return model.ToolSpec{}, "", fmt.Errorf("alias %q: Foreman entry missing source or version", alias)
	}

	ok, err := noWhitespaceRe.MatchString(sourceRaw)
	if err != nil {
		return model.ToolSpec{}, "", fmt.Errorf("alias %q: source pattern error: %w", alias, err)
	}
	if !ok {
		return model.ToolSpec{}, "", fmt.Errorf("alias %q: source %q contains embedded whitespace", alias, sourceRaw)
	}

	provider, ownerRepo := splitProvider(sourceRaw)
	if provider != "" && !strings.EqualFold(provider, string(model.ProviderGithub)) {
		return model.ToolSpec{}, fmt.Sprintf(
			"alias %q: dropping Foreman entry with unsupported provider %q (only github is supported)",
			alias, provider), nil
	}

	id, err := ident.ParseToolId(ownerRepo)
	if err != nil {
		return model.ToolSpec{}, "", fmt.Errorf("alias %q: %w", alias, err)
	}
	version, err := ident.ParseVersion(versionRaw)
	if err != nil {
		return model.ToolSpec{}, "", fmt.Errorf("alias %q: %w", alias, err)
	}
	return model.ToolSpec{Id: id, Version: version}, "", nil
}

// splitProvider splits an optional "<provider>#" prefix off a Foreman
// source string; GitHub is assumed when no prefix is present.
func splitProvider(source string) (provider, rest string) {
	if before, after, ok := strings.Cut(source, "#"); ok {
		return before, after
	}
	return "", source
}
