package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCPUNum(t *testing.T) {
	assert.GreaterOrEqual(t, GetCPUNum(), 1)
}

func TestGetMemoryCount(t *testing.T) {
	total := GetMemoryCount()
	used := GetUsedMemoryCount()
	if total > 0 {
		assert.LessOrEqual(t, used, total)
	}
}
