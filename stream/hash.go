package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/crc32"
)

// Checksum is the crc= value for a payload (CRC-32, IEEE polynomial).
func Checksum(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}

// SourceHash computes the hash a reply frame uses to name its request.
func SourceHash(payload []byte) [32]byte {
	return sha256.Sum256(payload)
}

// HashToHex converts a 32-byte hash to lowercase hex string.
func HashToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

// HexToHash parses a 64-character hex string to a 32-byte hash.
func HexToHash(s string) ([32]byte, bool) {
	var h [32]byte
	if len(s) != 64 {
		return h, false
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
