package utils

import (
	"testing"
	"time"

	"sitepay/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("s3cret", models.BusinessClaims{BusinessID: "biz-1", UserID: "u-1", Role: models.RoleOwner}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "biz-1", claims.BusinessID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.True(t, claims.CanAccess("biz-1"))
	assert.False(t, claims.CanAccess("biz-2"))
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateToken("s3cret", models.BusinessClaims{BusinessID: "biz-1"}, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("s3cret", models.BusinessClaims{BusinessID: "biz-1"}, -time.Minute)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, models.BusinessClaims{BusinessID: "biz-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name, secret, token string
	}{
		{"wrong secret", "other", valid},
		{"expired", "s3cret", expired},
		{"alg none", "s3cret", unsigned},
		{"garbage", "s3cret", "not.a.jwt"},
		{"no secret configured", "", valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}
