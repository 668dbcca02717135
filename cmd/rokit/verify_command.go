package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/rokit-build/rokit/internal/trustkey"
	"github.com/rokit-build/rokit/internal/verify"
	"github.com/spf13/cobra"
)

// newVerifyCmd exposes the checksum/minisign integrity helpers directly,
// for a downloaded artifact a user wants to check independent of trust or
// installation (§ trust cache only gates install, never a standalone file).
func newVerifyCmd() *cobra.Command {
	var checksumFile, algo, minisigFile, minisignKey, ed25519SigFile, ed25519Key string
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a downloaded artifact's checksum or minisign signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", path, verify.FormatSize(int64(len(data))))

			if checksumFile != "" {
				sumData, err := os.ReadFile(checksumFile)
				if err != nil {
					return err
				}
				if err := verify.VerifyChecksum(data, sumData, algo, baseName(path)); err != nil {
					return err
				}
				fmt.Fprintln(out, "checksum OK")
			}

			if minisigFile != "" {
				sigText, err := os.ReadFile(minisigFile)
				if err != nil {
					return err
				}
				keyText, err := os.ReadFile(minisignKey)
				if err != nil {
					return err
				}
				if err := trustkey.VerifyMinisign(data, string(sigText), string(keyText)); err != nil {
					return err
				}
				fmt.Fprintln(out, "minisign signature OK")
			}

			if ed25519SigFile != "" {
				key, err := verify.NormalizeHexKey(ed25519Key)
				if err != nil {
					return err
				}
				keyBytes, err := hex.DecodeString(key)
				if err != nil {
					return err
				}
				sig, err := verify.LoadSignature(ed25519SigFile)
				if err != nil {
					return err
				}
				if sig.Format != verify.FormatBinary {
					return fmt.Errorf("%s is not a raw ed25519 signature", ed25519SigFile)
				}
				if !ed25519.Verify(ed25519.PublicKey(keyBytes), data, sig.Bytes) {
					return fmt.Errorf("ed25519 signature does not match")
				}
				fmt.Fprintln(out, "ed25519 signature OK")
			}

			return nil
		},
	}
	cmd.Flags().StringVar(&checksumFile, "checksum-file", "", "path to a SHA256SUMS-style checksum file")
	cmd.Flags().StringVar(&algo, "algo", "sha256", "checksum algorithm: sha256 or sha512")
	cmd.Flags().StringVar(&minisigFile, "minisign-sig", "", "path to a minisign .minisig signature file")
	cmd.Flags().StringVar(&minisignKey, "minisign-key", "", "path to the minisign base64 public key file")
	cmd.Flags().StringVar(&ed25519SigFile, "ed25519-sig", "", "path to a raw or hex-encoded ed25519 signature file")
	cmd.Flags().StringVar(&ed25519Key, "ed25519-key", "", "64-character hex ed25519 public key")
	return cmd
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
