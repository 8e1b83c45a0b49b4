// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	require := require.New(t)

	pub, priv, err := GenerateKey()
	require.NoError(err)

	msg := []byte("round 7 vote target abc")
	sig := Sign(priv, msg)

	require.NoError(Verify(pub, msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	pub, priv, err := GenerateKey()
	require.NoError(t, err)

	sig := Sign(priv, []byte("original"))
	err = Verify(pub, []byte("tampered"), sig)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsWrongKeyLength(t *testing.T) {
	err := Verify([]byte("too-short"), []byte("msg"), make([]byte, 64))
	require.ErrorIs(t, err, ErrUnknownSigner)
}

func TestVerifyRejectsWrongSignatureLength(t *testing.T) {
	pub, _, err := GenerateKey()
	require.NoError(t, err)

	err = Verify(pub, []byte("msg"), []byte("too-short"))
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDeriveIDIsDeterministicAndDistinguishing(t *testing.T) {
	pub1, _, err := GenerateKey()
	require.NoError(t, err)
	pub2, _, err := GenerateKey()
	require.NoError(t, err)

	require.Equal(t, DeriveID(pub1), DeriveID(pub1))
	require.NotEqual(t, DeriveID(pub1), DeriveID(pub2))
}
