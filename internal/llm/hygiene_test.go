package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeToken_StripsTemplateMarkersAndRoleLabels(t *testing.T) {
	out := SanitizeToken("<|assistant|>Assistant: the answer is 42")
	assert.Equal(t, "the answer is 42", out)
}

func TestSanitizeFinal_CutsTrailingHallucinatedSection(t *testing.T) {
	out := SanitizeFinal("The mitochondria is the powerhouse of the cell.\n\nQUESTION: what is next?")
	assert.Equal(t, "The mitochondria is the powerhouse of the cell.", out)
}

func TestSanitizeFinal_NoHallucinationLeavesTextUntouched(t *testing.T) {
	out := SanitizeFinal("Plain answer with no trailing junk.")
	assert.Equal(t, "Plain answer with no trailing junk.", out)
}
