package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sourabsb/doctalk/internal/types"
)

func TestNormalize_UnitLength(t *testing.T) {
	vec := normalize([]float32{3, 4, 0})

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestNormalize_NearZeroVectorUnchanged(t *testing.T) {
	vec := []float32{1e-8, -1e-8}
	assert.Equal(t, vec, normalize(vec))
}

func TestResolveProfile_DefaultsToMode(t *testing.T) {
	assert.Equal(t, "local", resolveProfile(Config{Mode: types.LLMModeLocal}))
	assert.Equal(t, "custom", resolveProfile(Config{Mode: types.LLMModeCloud, Profile: "custom"}))
}
