package chathistory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity_IdenticalVectorsNearOne(t *testing.T) {
	a := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-6)
}

func TestCosineSimilarity_EmptyVectorsNoPanic(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}

func TestCosineSimilarity_OrthogonalIsZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0.0, cosineSimilarity(a, b), 1e-6)
}
