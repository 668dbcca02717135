package selector

import (
	"testing"

	"github.com/rokit-build/rokit/internal/model"
)

func assetsOf(names ...string) []model.Asset {
	out := make([]model.Asset, len(names))
	for i, n := range names {
		out[i] = model.Asset{Name: n, DownloadURL: "https://example.test/" + n}
	}
	return out
}

func TestSelectRejectsToolNameSubstringFalsePositives(t *testing.T) {
	host := model.HostDescriptor{OS: model.OSLinux, Arch: model.ArchX86_64}
	assets := assetsOf(
		"tarmac-0.7.0-linux-x86_64.zip",
		"tarmac-0.7.0-macos.zip",
		"tarmac-0.7.0-win64.zip",
	)

	got, err := Select(assets, host, "tarmac")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Asset.Name != "tarmac-0.7.0-linux-x86_64.zip" {
		t.Fatalf("Select() = %q, want the linux/x86_64 asset", got.Asset.Name)
	}
}

func TestSelectMixedCompatReleasePicksHostMatch(t *testing.T) {
	host := model.HostDescriptor{OS: model.OSMacOS, Arch: model.ArchAarch64}
	assets := assetsOf(
		"lefthook_1.7.0_Linux_x86_64.gz",
		"lefthook_1.7.0_MacOS_arm64.gz",
	)

	got, err := Select(assets, host, "lefthook")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Asset.Name != "lefthook_1.7.0_MacOS_arm64.gz" {
		t.Fatalf("Select() = %q, want the macOS/arm64 asset", got.Asset.Name)
	}
}

func TestSelectVersionInNameStillExtractsFormat(t *testing.T) {
	host := model.HostDescriptor{OS: model.OSLinux, Arch: model.ArchX86_64}
	assets := assetsOf("lune-0.8.6-linux-x86_64.zip")

	got, err := Select(assets, host, "lune")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Format != model.FormatZip {
		t.Fatalf("Format = %q, want zip", got.Format)
	}
}

func TestSelectNoCompatibleArtifact(t *testing.T) {
	host := model.HostDescriptor{OS: model.OSWindows, Arch: model.ArchX86_64}
	assets := assetsOf("tool-linux-x86_64.zip", "tool-macos-arm64.zip")

	_, err := Select(assets, host, "tool")
	if err == nil {
		t.Fatalf("expected NoCompatibleArtifact, got nil")
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	host := model.HostDescriptor{OS: model.OSLinux, Arch: model.ArchX86_64}
	assets := assetsOf(
		"tool-linux-x86_64.tar.gz",
		"tool-linux-x86_64.zip",
	)

	first, err := Select(assets, host, "tool")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	second, err := Select(assets, host, "tool")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if first.Asset.Name != second.Asset.Name {
		t.Fatalf("non-deterministic selection: %q vs %q", first.Asset.Name, second.Asset.Name)
	}
	if first.Asset.Name != "tool-linux-x86_64.tar.gz" {
		t.Fatalf("Select() = %q, want tar.gz preferred over zip", first.Asset.Name)
	}
}

func TestSelectIdempotentUnderIncompatibleAdditions(t *testing.T) {
	host := model.HostDescriptor{OS: model.OSLinux, Arch: model.ArchX86_64}
	before := assetsOf("tool-linux-x86_64.zip")
	after := assetsOf("tool-linux-x86_64.zip", "tool-windows-x86_64.zip", "tool-macos-arm64.zip")

	firstPick, err := Select(before, host, "tool")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	secondPick, err := Select(after, host, "tool")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if firstPick.Asset.Name != secondPick.Asset.Name {
		t.Fatalf("adding incompatible assets changed the pick: %q vs %q", firstPick.Asset.Name, secondPick.Asset.Name)
	}
}
