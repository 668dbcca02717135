package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func runIn(t *testing.T, dir string, args []string) (string, string, int) {
	t.Helper()
	prevWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(prevWd)

	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRunInitCreatesManifest(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROKIT_HOME", home)
	dir := t.TempDir()

	stdout, _, code := runIn(t, dir, []string{"init"})
	if code != 0 {
		t.Fatalf("init: exit %d, stdout %q", code, stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "rokit.toml")); err != nil {
		t.Fatalf("rokit.toml not created: %v", err)
	}
}

func TestRunInitTwiceFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROKIT_HOME", home)
	dir := t.TempDir()

	if _, _, code := runIn(t, dir, []string{"init"}); code != 0 {
		t.Fatalf("first init: exit %d", code)
	}
	_, stderr, code := runIn(t, dir, []string{"init"})
	if code == 0 {
		t.Fatal("second init: expected non-zero exit")
	}
	if stderr == "" {
		t.Fatal("second init: expected an error message")
	}
}

func TestRunListWithNoManifestIsEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROKIT_HOME", home)
	dir := t.TempDir()

	stdout, _, code := runIn(t, dir, []string{"list"})
	if code != 0 {
		t.Fatalf("list: exit %d", code)
	}
	if stdout != "" {
		t.Fatalf("list: expected no output, got %q", stdout)
	}
}

func TestRunSystemInfoPrintsHostAndDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROKIT_HOME", home)
	dir := t.TempDir()

	stdout, _, code := runIn(t, dir, []string{"system-info"})
	if code != 0 {
		t.Fatalf("system-info: exit %d", code)
	}
	if !bytes.Contains([]byte(stdout), []byte("host:")) {
		t.Fatalf("system-info: missing host line: %q", stdout)
	}
	if !bytes.Contains([]byte(stdout), []byte(home)) {
		t.Fatalf("system-info: missing data dir: %q", stdout)
	}
}

func TestRunGetTrustedToolsEmptyByDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROKIT_HOME", home)
	dir := t.TempDir()

	stdout, _, code := runIn(t, dir, []string{"get-trusted-tools"})
	if code != 0 {
		t.Fatalf("get-trusted-tools: exit %d", code)
	}
	if stdout != "" {
		t.Fatalf("expected no trusted tools, got %q", stdout)
	}
}

func TestRunTrustThenUntrust(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ROKIT_HOME", home)
	dir := t.TempDir()

	if _, _, code := runIn(t, dir, []string{"trust", "rojo-rbx/rojo"}); code != 0 {
		t.Fatalf("trust: exit %d", code)
	}
	stdout, _, code := runIn(t, dir, []string{"get-trusted-tools"})
	if code != 0 || stdout == "" {
		t.Fatalf("expected one trusted tool, got %q (exit %d)", stdout, code)
	}
	if _, _, code := runIn(t, dir, []string{"untrust", "rojo-rbx/rojo"}); code != 0 {
		t.Fatalf("untrust: exit %d", code)
	}
	stdout, _, code = runIn(t, dir, []string{"get-trusted-tools"})
	if code != 0 || stdout != "" {
		t.Fatalf("expected no trusted tools after untrust, got %q", stdout)
	}
}
