// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/throneforge/bftconsensus/types"
)

func TestWithIDsRoundTrip(t *testing.T) {
	ids := IDs{
		GameID: types.Hash{1},
		Self:   types.ParticipantID{2},
	}
	ctx := WithIDs(context.Background(), ids)

	require.Equal(t, ids, MustIDs(ctx))
	require.Equal(t, types.Hash{1}, Game(ctx))
	require.Equal(t, types.ParticipantID{2}, Self(ctx))
}

func TestMustIDsPanicsWhenMissing(t *testing.T) {
	require.Panics(t, func() {
		MustIDs(context.Background())
	})
}
