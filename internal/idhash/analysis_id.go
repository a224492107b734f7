package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeAnalysisID computes a deterministic analysis_id using SHA256.
// Formula: SHA256(chain|token_address|generated_at)
// Returns hex-encoded hash (64 characters). Token addresses are expected
// normalized to lowercase so request casing does not change the id.
func ComputeAnalysisID(chain, tokenAddress string, generatedAt int64) string {
	hash := analysisDigest(chain, tokenAddress, generatedAt)
	return hex.EncodeToString(hash[:])
}

// ShortCode derives the base58 share code for an analysis from the first
// 8 bytes of the same digest.
func ShortCode(chain, tokenAddress string, generatedAt int64) string {
	hash := analysisDigest(chain, tokenAddress, generatedAt)
	return base58.Encode(hash[:8])
}

func analysisDigest(chain, tokenAddress string, generatedAt int64) [32]byte {
	data := fmt.Sprintf("%s|%s|%d", chain, tokenAddress, generatedAt)
	return sha256.Sum256([]byte(data))
}
