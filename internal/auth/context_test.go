// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetIdentity(ctx))
	assert.False(t, IsAuthenticated(ctx))

	ctx = WithIdentity(ctx, &Identity{SubjectID: 7, Email: "maria@example.com"})

	id := GetIdentity(ctx)
	require.NotNil(t, id)
	assert.Equal(t, int64(7), id.SubjectID)
	assert.Equal(t, "maria@example.com", id.Email)
	assert.True(t, IsAuthenticated(ctx))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	assert.Equal(t, "req-1", RequestID(WithRequestID(ctx, "req-1")))
}
