package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRoleValid(t *testing.T) {
	assert.True(t, UserRolePatient.Valid())
	assert.True(t, UserRoleResearcher.Valid())
	assert.False(t, UserRole("admin").Valid())
	assert.False(t, UserRole("").Valid())
	assert.False(t, UserRole("Patient").Valid())
}

func TestUserJSONFieldNames(t *testing.T) {
	u := User{
		ID:            "abc",
		WalletAddress: "0xABC",
		Role:          UserRolePatient,
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"abc","walletAddress":"0xABC","role":"patient","createdAt":"2024-05-01T12:00:00Z"}`, string(data))
}
