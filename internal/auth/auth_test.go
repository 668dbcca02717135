package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rokit-build/rokit/internal/model"
)

type fakeProbe struct {
	err   error
	calls int
}

func (f *fakeProbe) ListReleases(ctx context.Context, id model.ToolId) ([]model.Release, error) {
	f.calls++
	return nil, f.err
}
func (f *fakeProbe) GetRelease(ctx context.Context, id model.ToolId, version string) (model.Release, error) {
	return model.Release{}, nil
}
func (f *fakeProbe) Download(ctx context.Context, asset model.Asset) ([]byte, error) { return nil, nil }

func TestAuthenticateSkipParseStoresWithoutProbing(t *testing.T) {
	dir := t.TempDir()
	probe := &fakeProbe{}
	if err := Authenticate(context.Background(), dir, "tok123", true, probe); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if probe.calls != 0 {
		t.Fatalf("skip-parse must not call the probe, got %d calls", probe.calls)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "tok123" {
		t.Fatalf("Load = %q, want tok123", got)
	}
}

func TestAuthenticateValidatesUnlessSkipped(t *testing.T) {
	dir := t.TempDir()
	probe := &fakeProbe{err: context.DeadlineExceeded}
	if err := Authenticate(context.Background(), dir, "bad-token", false, probe); err == nil {
		t.Fatalf("expected validation failure to surface as an error")
	}
	if probe.calls != 1 {
		t.Fatalf("expected exactly one probe call, got %d", probe.calls)
	}

	if _, err := Load(dir); err != nil {
		t.Fatalf("Load after failed auth: %v", err)
	}
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load on missing dir: %v", err)
	}
	if got != "" {
		t.Fatalf("Load = %q, want empty", got)
	}
}
