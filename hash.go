package amocollect

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// ContentHash returns a stable 32-bit fingerprint of data: the first four
// bytes of its SHAKE128 output, read big-endian.
//
// The hash only produces a deterministic synthetic file id for the
// collection document. It is NOT an integrity or authenticity check; 32 bits
// are trivially collidable.
func ContentHash(data []byte) uint32 {
	var sum [4]byte
	sha3.ShakeSum128(sum[:], data)
	return binary.BigEndian.Uint32(sum[:])
}
