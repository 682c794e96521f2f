package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
)

const txRefPrefix = "SP-"

// IdempotencyKey hashes the request fields that identify a retried payment.
// Requests within the same bucket produce the same key.
func IdempotencyKey(businessID, customerEmail string, amount decimal.Decimal, currency string, bucket time.Time) string {
	parts := []string{
		businessID,
		strings.ToLower(strings.TrimSpace(customerEmail)),
		amount.StringFixed(2),
		strings.ToUpper(currency),
		bucket.UTC().Format(time.RFC3339),
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// newTxRef derives the public reference from key plus a random suffix, so the
// reference is traceable to its request yet unique across intents.
func newTxRef(key string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return txRefPrefix + key[:16] + "-" + hex.EncodeToString(suffix), nil
}
