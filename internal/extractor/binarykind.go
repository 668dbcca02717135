package extractor

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rokit-build/rokit/internal/model"
)

var (
	peMagic       = []byte("MZ")
	elfMagic      = []byte("\x7fELF")
	machoMagic32  = []byte{0xfe, 0xed, 0xfa, 0xce}
	machoMagic32R = []byte{0xce, 0xfa, 0xed, 0xfe}
	machoMagic64  = []byte{0xfe, 0xed, 0xfa, 0xcf}
	machoMagic64R = []byte{0xcf, 0xfa, 0xed, 0xfe}
	machoFat      = []byte{0xca, 0xfe, 0xba, 0xbe}
	machoFatR     = []byte{0xbe, 0xba, 0xfe, 0xca}
	shebang       = []byte("#!")
)

// detectBinaryKind inspects the first bytes of data per §4.5's magic-byte
// table. Full header parsing (arch extraction from ELF/Mach-O/PE, the way
// the original implementation's "goblin"-based parser does) is out of
// scope: the store only needs to know the container *kind* matches the
// host, not re-derive the arch the selector already resolved.
func detectBinaryKind(data []byte) model.BinaryKind {
	switch {
	case bytes.HasPrefix(data, peMagic):
		return model.BinaryKindPE
	case bytes.HasPrefix(data, elfMagic):
		return model.BinaryKindELF
	case hasAnyPrefix(data, machoMagic32, machoMagic32R, machoMagic64, machoMagic64R, machoFat, machoFatR):
		return model.BinaryKindMachO
	case bytes.HasPrefix(data, shebang):
		return model.BinaryKindScript
	default:
		return model.BinaryKindUnknown
	}
}

func hasAnyPrefix(data []byte, prefixes ...[]byte) bool {
	for _, p := range prefixes {
		if bytes.HasPrefix(data, p) {
			return true
		}
	}
	return false
}

// expectedKind returns the binary kind a host's platform expects a native
// executable to carry.
func expectedKind(host model.HostDescriptor) model.BinaryKind {
	switch host.OS {
	case model.OSWindows:
		return model.BinaryKindPE
	case model.OSMacOS:
		return model.BinaryKindMachO
	default:
		return model.BinaryKindELF
	}
}

// filterByBinaryKind keeps entries whose detected kind matches host's
// expected kind; scripts are additionally allowed on Unix hosts, but only
// when the shebang's interpreter actually exists there.
func filterByBinaryKind(entries []candidateEntry, host model.HostDescriptor) []qualified {
	want := expectedKind(host)
	var out []qualified
	for _, e := range entries {
		kind := detectBinaryKind(e.data)
		if kind == want {
			out = append(out, qualified{entry: e, kind: kind})
			continue
		}
		if kind == model.BinaryKindScript && host.OS != model.OSWindows && interpreterExists(e.data) {
			out = append(out, qualified{entry: e, kind: kind})
		}
	}
	return out
}

// interpreterExists resolves the shebang line's interpreter to a path and
// reports whether it exists on this host. "#!/usr/bin/env bash" names its
// real interpreter as the first argument to env rather than in the path
// itself, so that form is resolved via PATH instead of os.Stat.
func interpreterExists(data []byte) bool {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	line = bytes.TrimSpace(bytes.TrimPrefix(line, shebang))
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return false
	}

	interpreter := string(fields[0])
	if filepath.Base(interpreter) == "env" {
		if len(fields) < 2 {
			return false
		}
		_, err := exec.LookPath(string(fields[1]))
		return err == nil
	}

	if _, err := os.Stat(interpreter); err == nil {
		return true
	}
	_, err := exec.LookPath(filepath.Base(interpreter))
	return err == nil
}

type qualified struct {
	entry candidateEntry
	kind  model.BinaryKind
}
