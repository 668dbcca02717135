package extractor

import (
	"path"
	"strings"
)

// pickCandidate chooses among qualified entries: an exact basename match
// (case-insensitive, ".exe" stripped) wins outright; otherwise shallowest
// path, then lexicographic, the same ordering §4.5 specifies for breaking
// ties between e.g. "selene-light" and "selene".
func pickCandidate(entries []qualified, toolName string) qualified {
	wantName := strings.ToLower(toolName)

	var exact []qualified
	for _, e := range entries {
		if strings.EqualFold(stripExe(path.Base(e.entry.path)), wantName) {
			exact = append(exact, e)
		}
	}
	pool := entries
	if len(exact) > 0 {
		pool = exact
	}

	best := pool[0]
	for _, e := range pool[1:] {
		if isShallowerOrEarlier(e, best) {
			best = e
		}
	}
	return best
}

func isShallowerOrEarlier(a, b qualified) bool {
	da, db := depth(a.entry.path), depth(b.entry.path)
	if da != db {
		return da < db
	}
	return a.entry.path < b.entry.path
}

func depth(p string) int {
	return strings.Count(path.Clean(p), "/")
}

func stripExe(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name[:len(name)-4]
	}
	return name
}
