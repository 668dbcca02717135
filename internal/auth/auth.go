// Package auth stores and validates the GitHub token Rokit uses for
// release API requests, as a small file alongside trust.json in the data
// directory rather than relying solely on the environment.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
	"github.com/rokit-build/rokit/internal/source"
)

type tokenFile struct {
	Token string `json:"token"`
}

// Path returns auth.json's location under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "auth.json")
}

// Load reads the stored token, returning an empty string if none was saved.
func Load(dataDir string) (string, error) {
	data, err := os.ReadFile(Path(dataDir))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", rerr.New(rerr.KindStoreIO, "auth.Load", err)
	}
	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", rerr.New(rerr.KindStoreIO, "auth.Load", err)
	}
	return f.Token, nil
}

// Save persists token to auth.json with owner-only permissions, since it
// carries a credential.
func Save(dataDir, token string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return rerr.New(rerr.KindStoreIO, "auth.Save", fmt.Errorf("create data dir: %w", err))
	}
	data, err := json.MarshalIndent(tokenFile{Token: token}, "", "  ")
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "auth.Save", err)
	}
	if err := os.WriteFile(Path(dataDir), data, 0o600); err != nil {
		return rerr.New(rerr.KindStoreIO, "auth.Save", err)
	}
	return nil
}

// Authenticate stores token for dataDir. Unless skipParse is set, it
// first validates the token by listing releases for a well-known public
// repository; skipParse exists for CI bootstrapping where the token is
// known-good but the validating call itself would consume rate limit.
func Authenticate(ctx context.Context, dataDir, token string, skipParse bool, probe source.Source) error {
	if !skipParse && probe != nil {
		if _, err := probe.ListReleases(ctx, model.ToolId{
			Provider: model.ProviderGithub, Scope: "rojo-rbx", Name: "rojo",
		}); err != nil {
			return rerr.New(rerr.KindSourceTerminal, "auth.Authenticate", fmt.Errorf("token validation failed: %w", err))
		}
	}
	return Save(dataDir, token)
}
