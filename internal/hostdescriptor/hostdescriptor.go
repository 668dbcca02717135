// Package hostdescriptor resolves the (OS, Arch, libc, bitness) tuple for
// the running host once at startup, and detects the same axes from asset
// filenames for the artifact selector.
package hostdescriptor

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/rokit-build/rokit/internal/model"
)

// Current returns the host descriptor for the process's own platform,
// computed once and cached. Grounded on original_source/lib/system/current.rs
// ("OS::current_system()" / "Arch::current_system()"): Rokit derives the
// descriptor directly from runtime.GOOS/runtime.GOARCH rather than keyword
// detection, which is reserved for asset filenames.
var Current = sync.OnceValue(func() model.HostDescriptor {
	return model.HostDescriptor{
		OS:      osFromGOOS(runtime.GOOS),
		Arch:    archFromGOARCH(runtime.GOARCH),
		Libc:    detectLibc(),
		Bitness: bitness(),
	}
})

func osFromGOOS(goos string) model.OS {
	switch goos {
	case "windows":
		return model.OSWindows
	case "darwin":
		return model.OSMacOS
	default:
		return model.OSLinux
	}
}

func archFromGOARCH(goarch string) model.Arch {
	switch goarch {
	case "arm64":
		return model.ArchAarch64
	default:
		return model.ArchX86_64
	}
}

func bitness() int {
	if strings.Contains(runtime.GOARCH, "64") {
		return 64
	}
	return 32
}

// detectLibc is Linux-only and best-effort: an /etc/os-release mentioning
// alpine yields LibcMusl and any other readable os-release yields LibcGNU;
// when os-release cannot be read it probes for the musl loader and
// otherwise degrades to LibcUnknown rather than failing. ldd is not
// consulted.
func detectLibc() model.Libc {
	if runtime.GOOS != "linux" {
		return model.LibcUnknown
	}
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return probeMuslViaLoader()
	}
	content := strings.ToLower(string(data))
	if strings.Contains(content, "alpine") {
		return model.LibcMusl
	}
	return model.LibcGNU
}

// probeMuslViaLoader checks for the musl dynamic loader under its
// conventional locations; absence of any signal yields LibcUnknown.
func probeMuslViaLoader() model.Libc {
	candidates := []string{
		"/lib/ld-musl-x86_64.so.1",
		"/lib/ld-musl-aarch64.so.1",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return model.LibcMusl
		}
	}
	return model.LibcUnknown
}

// Describe renders the current host descriptor as a single human-readable
// line for the system-info diagnostic command.
func Describe() string {
	host := Current()
	return fmt.Sprintf("os=%s arch=%s libc=%s bitness=%d", host.OS, host.Arch, host.Libc, host.Bitness)
}
