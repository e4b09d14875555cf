package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_JTI(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", time.Minute))

	blacklisted, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// Other JTIs are unaffected
	blacklisted, err = bl.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestInMemoryTokenBlacklist_ExpiredEntry(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, bl.AddToBlacklist(ctx, "jti-old", -time.Second))

	blacklisted, err := bl.IsBlacklisted(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestInMemoryTokenBlacklist_ActorInvalidation(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()
	actorID := "actor-1"

	issuedBefore := time.Now().Add(-time.Hour)

	invalidated, err := bl.IsActorTokenInvalidated(ctx, actorID, issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, bl.AddActorTokensToBlacklist(ctx, actorID, time.Hour))

	invalidated, err = bl.IsActorTokenInvalidated(ctx, actorID, issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalidated)

	// Tokens issued after the invalidation stay valid
	invalidated, err = bl.IsActorTokenInvalidated(ctx, actorID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated)
}
