package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatSections_JoinsInSortedSourceOrder(t *testing.T) {
	sections := map[string]string{
		"b.txt": "second",
		"a.txt": "first",
	}

	assert.Equal(t, "first\n\nsecond", concatSections(sections))
}

func TestConcatSections_SingleSection(t *testing.T) {
	assert.Equal(t, "only", concatSections(map[string]string{"a.txt": "only"}))
}

func TestConcatSections_Empty(t *testing.T) {
	assert.Equal(t, "", concatSections(nil))
}
