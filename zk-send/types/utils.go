package types

import (
	crand "crypto/rand"
	"fmt"
	"io"
)

// RandBytes returns n bytes from crypto/rand. It panics if the system source
// fails.
func RandBytes(n int) []byte {
	bz := make([]byte, n)
	if _, err := io.ReadFull(crand.Reader, bz); err != nil {
		panic(fmt.Sprintf("read random: %v", err))
	}
	return bz
}
