package selector

import "github.com/rokit-build/rokit/internal/model"

// osTokens and archTokens mirror sfetch's goosAliasTable/archAliasTable,
// generalized to Rokit's three-OS/two-arch model and to whole-token
// comparison instead of substring Contains, which is what let a tool
// named "tarmac" false-match the "mac" and "arm" substrings in the
// original heuristic.
var osTokens = map[model.OS][]string{
	model.OSWindows: {"windows", "win", "win32", "win64", "pc"},
	model.OSMacOS:   {"macos", "darwin", "osx", "apple", "mac"},
	model.OSLinux:   {"linux", "unknown-linux", "gnu"},
}

var archTokens = map[model.Arch][]string{
	model.ArchX86_64:  {"x86_64", "x64", "amd64", "64bit"},
	model.ArchAarch64: {"aarch64", "arm64"},
}

// tier ranks compatibility, lower is better; rejectedTier means the asset
// is incompatible with the host and must never be selected.
type tier int

const (
	tierExactOSExactArch tier = iota
	tierExactOSAnyArch
	tierAnyOSAnyArch
	rejectedTier
)

// classify determines which OS/Arch the asset's tokens indicate (if any),
// ignoring tokens that are part of the tool's own name, and returns the
// asset's compatibility tier against host.
func classify(tokens []token, toolNameTokens map[string]bool, host model.HostDescriptor) tier {
	matchedOS, hasOSToken, osConflict := matchPlatformToken(tokens, toolNameTokens, osTokens, host.OS)
	if osConflict {
		return rejectedTier
	}

	matchedArch, hasArchToken, archConflict := matchArchToken(tokens, toolNameTokens, host.Arch)
	if archConflict {
		return rejectedTier
	}

	osExact := hasOSToken && matchedOS == host.OS
	archExact := hasArchToken && matchedArch == host.Arch

	switch {
	case osExact && archExact:
		return tierExactOSExactArch
	case osExact && !hasArchToken:
		return tierExactOSAnyArch
	case !hasOSToken && !hasArchToken:
		return tierAnyOSAnyArch
	case !hasOSToken && archExact:
		// Arch pinned but OS unspecified: treated the same as the fully
		// unspecified tier since OS is the primary axis and spec.md's
		// four named tiers don't give this combination its own slot.
		return tierAnyOSAnyArch
	default:
		return rejectedTier
	}
}

func matchPlatformToken(tokens []token, toolNameTokens map[string]bool, table map[model.OS][]string, hostOS model.OS) (matched model.OS, found bool, conflict bool) {
	set := matchableSet(tokens)
	for os, aliases := range table {
		for _, alias := range aliases {
			if toolNameTokens[alias] {
				continue
			}
			if set[alias] {
				if found && matched != os {
					// Multiple distinct OS tokens present; if one is the
					// host's, prefer it rather than rejecting outright.
					if os == hostOS {
						matched = os
					}
					continue
				}
				matched, found = os, true
			}
		}
	}
	if found && matched != hostOS {
		return matched, found, true
	}
	return matched, found, false
}

func matchArchToken(tokens []token, toolNameTokens map[string]bool, hostArch model.Arch) (matched model.Arch, found bool, conflict bool) {
	set := matchableSet(tokens)
	for arch, aliases := range archTokens {
		for _, alias := range aliases {
			if toolNameTokens[alias] {
				continue
			}
			if set[alias] {
				if found && matched != arch {
					if arch == hostArch {
						matched = arch
					}
					continue
				}
				matched, found = arch, true
			}
		}
	}
	if found && matched != hostArch {
		return matched, found, true
	}
	return matched, found, false
}
