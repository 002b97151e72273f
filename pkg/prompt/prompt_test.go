package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	ok, err := Fixed(true).Confirm("Run 26 searches?", "")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Fixed(false).Confirm("Run 26 searches?", "")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFor_AssumeYes(t *testing.T) {
	assert.Equal(t, Fixed(true), For(true))
}

func TestFor_NoTerminal(t *testing.T) {
	// go test does not attach a terminal to stdin
	if Interactive() {
		t.Skip("running on a terminal")
	}
	assert.Equal(t, Fixed(false), For(false))
}
