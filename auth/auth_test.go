package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret-for-unit-tests-only", time.Hour)

	signed, err := tokens.Generate("alice")
	req.NoError(err)

	claims, err := tokens.Validate(signed)
	req.NoError(err)
	req.Equal("alice", claims.UserID)
}

func Test_Token_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret-one-secret-one-secret", time.Hour)
	other := NewTokens("secret-two-secret-two-secret", time.Hour)

	signed, err := tokens.Generate("alice")
	req.NoError(err)

	_, err = other.Validate(signed)
	req.Error(err)
}

func Test_Token_Expired(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret-for-unit-tests-only", -time.Minute)

	signed, err := tokens.Generate("alice")
	req.NoError(err)

	_, err = tokens.Validate(signed)
	req.Error(err)
}

func Test_Token_Garbage(t *testing.T) {
	tokens := NewTokens("test-secret-for-unit-tests-only", time.Hour)
	_, err := tokens.Validate("not-a-token")
	require.Error(t, err)
}
