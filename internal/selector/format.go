package selector

import (
	"strings"

	"github.com/rokit-build/rokit/internal/model"
)

// detectFormat inspects a lowercased filename's extension, checking the
// gzipped-tar ".tar.gz"/".tgz" case before the single-extension cases.
func detectFormat(nameLower string) model.Format {
	switch {
	case strings.HasSuffix(nameLower, ".tar.gz"), strings.HasSuffix(nameLower, ".tgz"):
		return model.FormatTarGz
	case strings.HasSuffix(nameLower, ".tar"):
		return model.FormatTar
	case strings.HasSuffix(nameLower, ".zip"):
		return model.FormatZip
	case strings.HasSuffix(nameLower, ".gz"):
		return model.FormatGz
	default:
		return model.FormatPlain
	}
}

// formatRank orders formats for the compression tiebreaker: lower ranks
// are preferred (smaller downloads first).
var formatRank = map[model.Format]int{
	model.FormatTarGz: 0,
	model.FormatZip:   1,
	model.FormatTar:   2,
	model.FormatGz:    3,
	model.FormatPlain:  4,
}
