// Package vecx converts between float32 vectors and the little-endian byte
// buffers RediSearch expects for VECTOR fields.
package vecx

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ToBytes encodes a vector as a little-endian float32 buffer.
func ToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// FromBytes decodes a little-endian float32 buffer back into a vector.
func FromBytes(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector buffer length %d is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
