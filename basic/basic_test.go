package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEven(t *testing.T) {
	assert.True(t, IsEven(0))
	assert.True(t, IsEven(2))
	assert.True(t, IsEven(-4))
	assert.False(t, IsEven(1))
	assert.False(t, IsEven(-3))
}

func TestSum(t *testing.T) {
	testCases := map[int]int{-5: 0, 0: 0, 1: 1, 4: 10, 100: 5050}
	for n, want := range testCases {
		assert.Equal(t, want, Sum(n), "Sum(%d)", n)
	}
}
