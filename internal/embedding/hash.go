package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/Rrens/rag-chatbot/internal/domain"
)

// DefaultDimension matches the vector collection's configured size
const DefaultDimension = 768

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// HashEmbedder is a deterministic bag-of-words hash vectorizer.
// It carries no semantic meaning and stands in for a real embedding model.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder producing vectors of length dim
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashEmbedder{dim: dim}
}

// Dimension returns the output vector length
func (e *HashEmbedder) Dimension() int {
	return e.dim
}

// Embed hashes each word into a bucket and L2-normalises the result.
// Words are separated by whitespace runs; leading or trailing whitespace yields an empty word in bucket 0.
// A word's hash is the sum of its UTF-16 code units.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, domain.ErrEmptyText
	}

	vec := make([]float64, e.dim)
	for _, word := range splitWords(strings.ToLower(text)) {
		var sum int
		for _, unit := range utf16.Encode([]rune(word)) {
			sum += int(unit)
		}
		b := sum % e.dim
		vec[b] = (vec[b] + 1) * 0.1
	}

	return normalize(vec), nil
}

// splitWords splits on whitespace runs and keeps the empty edges, like String.prototype.split(/\s+/)
func splitWords(text string) []string {
	var words []string
	start, inSpace := 0, false
	for i, r := range text {
		if isSpace(r) {
			if !inSpace {
				words = append(words, text[start:i])
				inSpace = true
			}
			continue
		}
		if inSpace {
			start, inSpace = i, false
		}
	}
	if inSpace {
		return append(words, "")
	}
	return append(words, text[start:])
}

func isSpace(r rune) bool {
	return r == '\uFEFF' || (r != '\u0085' && unicode.IsSpace(r))
}

func normalize(vec []float64) []float32 {
	var sq float64
	for _, x := range vec {
		sq += x * x
	}
	mag := math.Sqrt(sq)

	out := make([]float32, len(vec))
	for i, x := range vec {
		if mag == 0 {
			out[i] = float32(x)
			continue
		}
		out[i] = float32(x / mag)
	}
	return out
}
