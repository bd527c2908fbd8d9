package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ChecksumFromContent computes a deterministic 64-bit BLAKE2b digest of the
// chunk text. Identical text always produces an identical checksum, so a
// stored chunk whose checksum no longer matches its source was edited behind
// a stable identifier.
func ChecksumFromContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
