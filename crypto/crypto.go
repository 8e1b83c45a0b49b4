// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto implements C1, the Identity & Signature Verifier:
// deriving participant ids from public keys and verifying Ed25519
// signatures over the canonical byte encodings produced by codec.
package crypto

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/ed25519"

	"github.com/throneforge/bftconsensus/types"
)

// DomainTag is prepended to every signed byte string so that a
// signature produced under this protocol cannot verify as a message of
// another protocol signing with the same key. It is one constant for
// every message kind; kinds are told apart by the message_kind byte in
// each encoding's header, which is part of the signed bytes.
const DomainTag = "throneforge-bft-consensus-v1"

var (
	// ErrInvalidSignature is returned by Verify when the signature does
	// not match the message under the claimed public key.
	ErrInvalidSignature = errors.New("crypto: invalid signature")
	// ErrUnknownSigner is returned when the supplied public key is not
	// the expected length for Ed25519.
	ErrUnknownSigner = errors.New("crypto: unknown signer public key")
	// ErrMalformedMessage is returned when the signature is not the
	// expected Ed25519 signature length.
	ErrMalformedMessage = errors.New("crypto: malformed signature")
)

// DeriveID computes a participant's 32-byte id as a collision-resistant
// hash of their public key, domain-separated from message signing so an
// id can never be mistaken for a signature target.
func DeriveID(publicKey []byte) types.ParticipantID {
	h := sha256.Sum256(append([]byte(DomainTag+"/id/"), publicKey...))
	var id types.ParticipantID
	copy(id[:], h[:])
	return id
}

// Verify checks that signature is a valid Ed25519 signature by
// publicKey over domain-separated messageBytes. It runs in the
// constant time ed25519.Verify provides and never short-circuits on
// secret-dependent branches beyond what the underlying implementation
// guarantees.
func Verify(publicKey, messageBytes, signature []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return ErrUnknownSigner
	}
	if len(signature) != ed25519.SignatureSize {
		return ErrMalformedMessage
	}
	domained := domainSeparate(messageBytes)
	if !ed25519.Verify(ed25519.PublicKey(publicKey), domained, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign produces an Ed25519 signature over domain-separated
// messageBytes using a local secret key. Production deployments sign
// through the external Keystore collaborator instead (§6); Sign exists
// for tests and single-process deployments that hold their own keys.
func Sign(secretKey ed25519.PrivateKey, messageBytes []byte) []byte {
	return ed25519.Sign(secretKey, domainSeparate(messageBytes))
}

// GenerateKey creates a new Ed25519 key pair for tests and local
// tooling.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

func domainSeparate(messageBytes []byte) []byte {
	out := make([]byte, 0, len(DomainTag)+len(messageBytes))
	out = append(out, []byte(DomainTag)...)
	out = append(out, messageBytes...)
	return out
}
