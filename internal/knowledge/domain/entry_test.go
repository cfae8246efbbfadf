package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorRoundTrip(t *testing.T) {
	v := Vector{0.1, -0.5, 3}

	value, err := v.Value()
	assert.NoError(t, err)

	var out Vector
	assert.NoError(t, out.Scan(value))
	assert.Equal(t, v, out)
}

func TestVectorScanEmpty(t *testing.T) {
	var v Vector
	assert.NoError(t, v.Scan(nil))
	assert.Empty(t, v)
}
