package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSigner(t *testing.T) {
	t.Run("empty key is rejected", func(t *testing.T) {
		_, err := NewTokenSigner("", time.Minute)
		require.Error(t, err)
	})

	t.Run("round trip keeps capability and subject", func(t *testing.T) {
		signer, err := NewTokenSigner("k", 0)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, signer.ttl)

		token, err := signer.Sign(CapabilityRegister, "21CS001")
		require.NoError(t, err)

		claims, err := signer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "register", claims.Capability)
		assert.Equal(t, "21CS001", claims.Subject)
		assert.Equal(t, "proctor", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("different key fails", func(t *testing.T) {
		a, _ := NewTokenSigner("a", time.Minute)
		b, _ := NewTokenSigner("b", time.Minute)
		token, err := a.Sign(CapabilityVerify, "21CS001")
		require.NoError(t, err)
		_, err = b.Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired token fails", func(t *testing.T) {
		signer, _ := NewTokenSigner("k", time.Minute)
		issued := time.Now()
		signer.now = func() time.Time { return issued }
		token, err := signer.Sign(CapabilityVerify, "21CS001")
		require.NoError(t, err)

		signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
		_, err = signer.Parse(token)
		assert.Error(t, err)
	})
}
