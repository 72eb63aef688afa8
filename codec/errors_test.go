package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marwahaha/affinity/codec"
)

func TestNewConfigErrorFormatsMessage(t *testing.T) {
	err := codec.NewConfigError(codec.ErrMissingFixedSize, "examples.Thing.id", "fixed annotation on %s requires a size", "id")
	assert.Equal(t, codec.ErrMissingFixedSize, err.Code)
	assert.Equal(t, "examples.Thing.id", err.Subject)
	assert.Contains(t, err.Error(), "examples.Thing.id")
	assert.Contains(t, err.Error(), "requires a size")
}

func TestConfigErrorSatisfiesErrorInterface(t *testing.T) {
	var err error = codec.NewConfigError(codec.ErrArityMismatch, "examples.Thing", "mismatch")
	assert.Error(t, err)
}
