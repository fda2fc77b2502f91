package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// Hasher computes keyed HMAC-SHA256 digests for transport integrity headers.
// Hash instances are pooled per key to avoid an allocation per request.
type Hasher struct {
	pool sync.Pool
}

// NewHasher returns a Hasher for hashKey, or nil when hashKey is empty; a nil
// *Hasher is valid and produces no digest.
func NewHasher(hashKey string) *Hasher {
	if hashKey == "" {
		return nil
	}

	key := []byte(hashKey)
	return &Hasher{
		pool: sync.Pool{
			New: func() any {
				return hmac.New(sha256.New, key)
			},
		},
	}
}

// Sum returns the raw HMAC-SHA256 digest of data.
func (h *Hasher) Sum(data []byte) []byte {
	if h == nil {
		return nil
	}

	hh := h.pool.Get().(hash.Hash)
	hh.Reset()

	hh.Write(data)
	sum := hh.Sum(nil)

	hh.Reset()
	h.pool.Put(hh)

	return sum
}

// SumHex returns the hex-encoded digest of data, or "" for a nil Hasher.
func (h *Hasher) SumHex(data []byte) string {
	if h == nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(data))
}

// HashString computes an HMAC-SHA256 signature over data with hashKey and
// returns it hex-encoded. It does not use a pool and suits one-off checks,
// such as verifying a header in tests.
func HashString(data string, hashKey string) string {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write([]byte(data))
	return hex.EncodeToString(hasher.Sum(nil))
}
