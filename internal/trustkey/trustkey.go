// Package trustkey provides the two integrity aids layered on top of the
// trust cache: an optional minisign signature check used by the
// `rokit verify` command, and the BLAKE2b content digest recorded in every
// stored tool's installed.json sidecar.
package trustkey

import (
	"encoding/hex"
	"fmt"

	"github.com/jedisct1/go-minisign"
	"golang.org/x/crypto/blake2b"
)

// ContentDigest returns the hex-encoded BLAKE2b-256 digest of data, used
// as installed.json's integrity fingerprint.
func ContentDigest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyMinisign checks data against a minisign signature and base64
// public key. Its only caller is the `rokit verify` command; no source and
// no install path calls it.
func VerifyMinisign(data []byte, signatureText, publicKeyBase64 string) error {
	pubKey, err := minisign.NewPublicKey(publicKeyBase64)
	if err != nil {
		return fmt.Errorf("parse minisign public key: %w", err)
	}
	sig, err := minisign.DecodeSignature(signatureText)
	if err != nil {
		return fmt.Errorf("parse minisign signature: %w", err)
	}
	valid, err := pubKey.Verify(data, sig)
	if err != nil {
		return fmt.Errorf("minisign verification error: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign signature does not match")
	}
	return nil
}
