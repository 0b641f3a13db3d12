package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	d := Digits(9)
	assert.Len(t, d, 9)
	for _, r := range d {
		assert.True(t, r >= '0' && r <= '9', "unexpected rune %q", r)
	}
}

func TestRandomNumeric(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := Random{}.Numeric(GroupIDDigits)
		assert.True(t, n >= 0 && n < 1000000, "out of range: %d", n)
	}
}

func TestSequence(t *testing.T) {
	s := &Sequence{Next: 10}
	assert.Equal(t, int64(11), s.Numeric(6))
	assert.Equal(t, int64(12), s.Numeric(9))
}

func TestHandle(t *testing.T) {
	a, b := Handle(), Handle()
	assert.NotEqual(t, a, b)
	assert.True(t, IsHandle(a))
	assert.False(t, IsHandle("123"))
}
