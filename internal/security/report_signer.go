// Package security signs published reports so consumers can detect tampering.
package security

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

var (
	ErrHashMismatch     = errors.New("keccak256 hash mismatch")
	ErrInvalidSignature = errors.New("signature verification failed")
)

// Integrity carries the payload digest
type Integrity struct {
	Keccak256 string `json:"keccak256"`
	Timestamp int64  `json:"timestamp"`
}

// SignedReport wraps a payload with its digest and a recoverable secp256k1 signature
type SignedReport struct {
	Payload   json.RawMessage `json:"payload"`
	Integrity Integrity       `json:"integrity"`
	Signature string          `json:"signature"`
	PublicKey string          `json:"publicKey"`
}

// ReportSigner signs payloads with a secp256k1 key
type ReportSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey  string
	now        func() time.Time
}

// NewReportSigner creates a signer from a hex encoded private key. An empty
// key generates an ephemeral one.
func NewReportSigner(hexKey string) (*ReportSigner, error) {
	var (
		key *ecdsa.PrivateKey
		err error
	)
	if hexKey == "" {
		key, err = crypto.GenerateKey()
	} else {
		key, err = crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	s := &ReportSigner{
		privateKey: key,
		publicKey:  hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)),
		now:        time.Now,
	}
	logrus.WithFields(logrus.Fields{
		"address":   crypto.PubkeyToAddress(key.PublicKey).Hex(),
		"ephemeral": hexKey == "",
	}).Info("Report signer initialized")
	return s, nil
}

// PublicKey returns the uncompressed public key as 0x-prefixed hex
func (s *ReportSigner) PublicKey() string {
	return s.publicKey
}

// Sign marshals payload and signs its keccak256 digest
func (s *ReportSigner) Sign(payload interface{}) (SignedReport, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return SignedReport{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	hash := crypto.Keccak256Hash(raw)
	sig, err := crypto.Sign(hash.Bytes(), s.privateKey)
	if err != nil {
		return SignedReport{}, fmt.Errorf("failed to sign payload: %w", err)
	}

	return SignedReport{
		Payload: raw,
		Integrity: Integrity{
			Keccak256: hash.Hex(),
			Timestamp: s.now().Unix(),
		},
		Signature: hexutil.Encode(sig),
		PublicKey: s.publicKey,
	}, nil
}

// Verify checks the digest and signature of a signed report against the
// public key it carries.
func Verify(r SignedReport) error {
	hash := crypto.Keccak256Hash(r.Payload)
	if hash.Hex() != r.Integrity.Keccak256 {
		return ErrHashMismatch
	}

	sig, err := hexutil.Decode(r.Signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length: %d", len(sig))
	}
	pub, err := hexutil.Decode(r.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to decode public key: %w", err)
	}

	// drop the recovery id
	if !crypto.VerifySignature(pub, hash.Bytes(), sig[:64]) {
		return ErrInvalidSignature
	}
	return nil
}
