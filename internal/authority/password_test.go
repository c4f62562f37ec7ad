// ABOUTME: Tests for operator password hashing and checking
// ABOUTME: Uses the in-memory store

package authority

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/keepsake/internal/store"
)

func TestPassword_SetAndCheck(t *testing.T) {
	ctx := context.Background()
	s := store.NewMockStore()

	assert.ErrorIs(t, CheckPassword(ctx, s, "anything"), ErrPasswordUnset)

	require.NoError(t, SetPassword(ctx, s, "correct horse"))
	assert.NoError(t, CheckPassword(ctx, s, "correct horse"))
	assert.ErrorIs(t, CheckPassword(ctx, s, "wrong horse"), ErrWrongPassword)

	hash, err := s.GetSetting(ctx, store.SettingAdminPassword)
	require.NoError(t, err)
	assert.NotContains(t, hash, "correct horse")
}

func TestPassword_TooShort(t *testing.T) {
	err := SetPassword(context.Background(), store.NewMockStore(), "short")
	assert.Error(t, err)
}
