// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gctx carries the small, immutable identity values every
// engine call site needs — which game table this engine instance
// serves and which participant it signs as — the way the teacher's
// ctx.go carries chain identity through context.Context.
package gctx

import (
	"context"

	"github.com/throneforge/bftconsensus/types"
)

// Context is a type alias for standard context, kept for cleaner call
// sites in this module's signatures.
type Context = context.Context

// IDs is the identity bundle attached to a context at engine startup.
type IDs struct {
	GameID     types.Hash
	Self       types.ParticipantID
	SigningKey []byte // ed25519 private key, never logged
	PublicKey  []byte // ed25519 public key, safe to log/announce
}

// idsKey is a private typed key to avoid collisions with other
// packages' context values.
type idsKey struct{}

// WithIDs attaches IDs to ctx.
func WithIDs(ctx context.Context, v IDs) context.Context {
	return context.WithValue(ctx, idsKey{}, v)
}

// MustIDs retrieves the IDs attached by WithIDs, panicking if absent.
// Engine entry points are expected to run under a context built with
// WithIDs; a missing value means a call site skipped wiring and should
// fail fast rather than operate under a zero identity.
func MustIDs(ctx context.Context) IDs {
	v, ok := ctx.Value(idsKey{}).(IDs)
	if !ok {
		panic("gctx: IDs missing from context")
	}
	return v
}

// Game returns the GameID carried in ctx.
func Game(ctx context.Context) types.Hash { return MustIDs(ctx).GameID }

// Self returns the local ParticipantID carried in ctx.
func Self(ctx context.Context) types.ParticipantID { return MustIDs(ctx).Self }
