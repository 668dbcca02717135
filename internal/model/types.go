// Package model holds the data types shared across Rokit's core packages:
// tool identity, releases/assets, artifacts, and host descriptors.
package model

import (
	"fmt"
	"strings"
)

// Provider names a release-hosting backend. Only Github exists today, but
// the type keeps the door open for the provider-neutral source interface.
type Provider string

const ProviderGithub Provider = "github"

// ToolId identifies a tool independent of version: (provider, scope, name).
// Comparisons are case-insensitive; CanonicalKey returns the lowercase form
// used for store paths and trust-cache membership, while Scope/Name retain
// the casing the user supplied for display and re-serialization.
type ToolId struct {
	Provider Provider
	Scope    string
	Name     string
}

// CanonicalKey returns the lowercase "provider/scope/name" form used for
// filesystem paths, trust-cache entries, and map keys.
func (t ToolId) CanonicalKey() string {
	return fmt.Sprintf("%s/%s/%s", strings.ToLower(string(t.Provider)), strings.ToLower(t.Scope), strings.ToLower(t.Name))
}

// String renders the identifier in display casing: "scope/name".
func (t ToolId) String() string {
	return fmt.Sprintf("%s/%s", t.Scope, t.Name)
}

// ToolSpec is a fully resolved tool identity plus a concrete semver
// version (never a constraint). It serializes as "scope/name@X.Y.Z".
type ToolSpec struct {
	Id      ToolId
	Version string
}

func (s ToolSpec) String() string {
	return fmt.Sprintf("%s/%s@%s", s.Id.Scope, s.Id.Name, s.Version)
}

// CanonicalKey returns the lowercase key used for store paths:
// "provider/scope/name/version".
func (s ToolSpec) CanonicalKey() string {
	return fmt.Sprintf("%s/%s", s.Id.CanonicalKey(), strings.ToLower(s.Version))
}

// ToolAlias is the short user-facing name used as both the manifest key
// and the shim filename.
type ToolAlias string

// Lower returns the case-folded form used for uniqueness checks and
// dispatcher lookups.
func (a ToolAlias) Lower() string { return strings.ToLower(string(a)) }

// Release is the provider-neutral record of a single release.
type Release struct {
	Tag     string
	Version string
	Assets  []Asset
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string
	Size        int64
	DownloadURL string
	ContentType string
}

// Format is the detected archive/container shape of a selected asset.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTar   Format = "tar"
	FormatTarGz Format = "tar.gz"
	FormatGz    Format = "gz"
	FormatPlain Format = "plain"
)

// BinaryKind is the detected executable format of an extracted candidate.
type BinaryKind string

const (
	BinaryKindELF     BinaryKind = "elf"
	BinaryKindMachO   BinaryKind = "macho"
	BinaryKindPE      BinaryKind = "pe"
	BinaryKindScript  BinaryKind = "script"
	BinaryKindUnknown BinaryKind = "unknown"
)

// Artifact is one concrete asset chosen for a release+host, plus the
// detected archive format it carries.
type Artifact struct {
	Asset  Asset
	Format Format
}

// OS is one of the three platforms Rokit targets.
type OS string

const (
	OSWindows OS = "windows"
	OSMacOS   OS = "macos"
	OSLinux   OS = "linux"
)

// Arch is one of the two architectures Rokit targets.
type Arch string

const (
	ArchX86_64  Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
)

// Libc distinguishes Linux C library flavors; irrelevant elsewhere.
type Libc string

const (
	LibcGNU     Libc = "gnu"
	LibcMusl    Libc = "musl"
	LibcUnknown Libc = "unknown"
)

// HostDescriptor captures the host platform axes the selector scores
// against: OS/Arch are primary, Libc/Bitness are tiebreakers.
type HostDescriptor struct {
	OS      OS
	Arch    Arch
	Libc    Libc
	Bitness int
}
