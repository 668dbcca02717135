package verify

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/jedisct1/go-minisign"
)

const (
	FormatBinary   = "binary"
	FormatPGP      = "pgp"
	FormatMinisign = "minisign"
)

type SignatureData struct {
	Format string
	Bytes  []byte
}

func LoadSignature(path string) (SignatureData, error) {
	// #nosec G304 -- path sig tmp controlled
	data, err := os.ReadFile(path)
	if err != nil {
		return SignatureData{}, fmt.Errorf("read sig: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "-----BEGIN PGP SIGNATURE-----") {
		return SignatureData{Format: FormatPGP}, nil
	}
	if strings.HasPrefix(trimmed, "untrusted comment:") {
		return SignatureData{Format: FormatMinisign}, nil
	}
	if len(data) == ed25519.SignatureSize {
		return SignatureData{Format: FormatBinary, Bytes: data}, nil
	}
	decoded, err := hex.DecodeString(trimmed)
	if err == nil && len(decoded) == ed25519.SignatureSize {
		return SignatureData{Format: FormatBinary, Bytes: decoded}, nil
	}
	return SignatureData{}, fmt.Errorf("unsupported signature format in %s", path)
}

func VerifyMinisignSignature(contentToVerify []byte, sigPath, pubKeyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return fmt.Errorf("read minisign pubkey: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("read minisign signature: %w", err)
	}

	valid, err := pubKey.Verify(contentToVerify, sig)
	if err != nil {
		return fmt.Errorf("minisign: verification error: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign: signature verification failed")
	}

	return nil
}

// VerifyPGPSignature is unsupported: Rokit verifies minisign and raw
// ed25519 signatures only (§ on trust), and shelling out to a gpg binary would add an
// external-process dependency the dispatcher otherwise never needs.
func VerifyPGPSignature(assetPath, sigPath, pubKeyPath string) error {
	return fmt.Errorf("pgp signature verification is not supported; use a minisign signature instead")
}
