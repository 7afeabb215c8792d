package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	gen := NewSequentialIDs("cap")

	assert.Equal(t, "cap-0001", gen.Generate())
	assert.Equal(t, "cap-0002", gen.Generate())
	assert.Equal(t, "cap-0003", gen.Generate())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	gen := NewSequentialIDs("")
	assert.Equal(t, "test-0001", gen.Generate())
}
