package model

import (
	"encoding/binary"
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultEmbeddingDimension is the vector length used when a deployment
// does not pin another one.
const DefaultEmbeddingDimension = 768

// ErrInvalidEmbeddingEncoding is returned when a stored embedding cannot be decoded
var ErrInvalidEmbeddingEncoding = goerr.New("invalid embedding encoding")

// Embedding is a fixed-length float32 vector.
//
// Its binary encoding is a little-endian uint32 dimension header followed by
// dimension little-endian IEEE-754 float32 values. It does not depend on the
// host byte order.
type Embedding []float32

// Dimension returns the vector length
func (e Embedding) Dimension() int {
	return len(e)
}

// Norm returns the Euclidean norm
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Copy returns an independent copy of the vector
func (e Embedding) Copy() Embedding {
	if e == nil {
		return nil
	}
	copied := make(Embedding, len(e))
	copy(copied, e)
	return copied
}

// IsZero reports whether every component is zero (including the empty vector)
func (e Embedding) IsZero() bool {
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}

// MarshalBinary implements encoding.BinaryMarshaler
func (e Embedding) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4+4*len(e))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(e)))
	for i, v := range e {
		binary.LittleEndian.PutUint32(buf[4+4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (e *Embedding) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return goerr.Wrap(ErrInvalidEmbeddingEncoding, "missing dimension header", goerr.V("length", len(data)))
	}
	dim := int(binary.LittleEndian.Uint32(data[:4]))
	if len(data) != 4+4*dim {
		return goerr.Wrap(ErrInvalidEmbeddingEncoding, "payload does not match dimension",
			goerr.V("dimension", dim),
			goerr.V("length", len(data)))
	}

	vec := make(Embedding, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	*e = vec
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b.
// ok is false when the dimensions differ or either vector has zero norm;
// such pairs are not comparable and must be excluded from ranking.
func CosineSimilarity(a, b Embedding) (score float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, false
	}

	return dot / denom, true
}
