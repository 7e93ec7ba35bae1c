// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/taskora/internal/platform/sec"
)

/*
TestHashPassword verifies hashing is salted and verification matches only
the original password.
*/
func TestHashPassword(t *testing.T) {
	password := "correct horse battery staple"

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	// Salted: the same input yields a different hash every time
	second, err := sec.HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, hash, second)

	assert.True(t, sec.CheckPasswordHash(password, hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
	assert.False(t, sec.CheckPasswordHash(password, "not-a-bcrypt-hash"))
}
