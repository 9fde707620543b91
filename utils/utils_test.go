package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
}

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}

func TestPtrHelpers(t *testing.T) {
	assert.Equal(t, 5, *Ptr(5))
	assert.Equal(t, 0, OrZero[int](nil))
	assert.Equal(t, "x", OrZero(Ptr("x")))
	assert.Nil(t, StringOrNil(""))
	assert.Equal(t, "a", *StringOrNil("a"))
}
