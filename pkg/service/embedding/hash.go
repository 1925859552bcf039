package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashClient is an offline Client that builds vectors by feature hashing of
// lowercased word tokens. Texts sharing words get similar vectors, and the
// same text always gets the same vector.
type HashClient struct{}

// NewHashClient creates a HashClient
func NewHashClient() *HashClient {
	return &HashClient{}
}

func (c *HashClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	result := make([][]float64, 0, len(input))
	for _, text := range input {
		result = append(result, hashVector(text, dimension))
	}
	return result, nil
}

func hashVector(text string, dimension int) []float64 {
	vec := make([]float64, dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, token := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		idx := int(sum % uint64(dimension))
		sign := 1.0
		if sum&(1<<63) != 0 {
			sign = -1.0
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
