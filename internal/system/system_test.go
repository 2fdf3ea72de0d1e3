package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 2, Workers(8, 2))
	assert.Equal(t, 3, Workers(3, 10))
	assert.Equal(t, 1, Workers(4, 0))
	assert.LessOrEqual(t, Workers(0, 5), 5)
	assert.GreaterOrEqual(t, Workers(0, 5), 1)
}
