package num

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatAdd(t *testing.T) {
	t.Run("adds in range", func(t *testing.T) {
		got := SatAdd(FromUint64(5), FromUint64(7))
		assert.Equal(t, "12", got.Dec())
	})

	t.Run("saturates at max", func(t *testing.T) {
		got := SatAdd(Max(), FromUint64(1))
		assert.True(t, got.Eq(Max()))
	})

	t.Run("does not alias operands", func(t *testing.T) {
		a := FromUint64(1)
		_ = SatAdd(a, FromUint64(2))
		assert.Equal(t, "1", a.Dec())
	})
}

func TestSatMul(t *testing.T) {
	t.Run("multiplies in range", func(t *testing.T) {
		got := SatMul(FromUint64(1010), FromUint64(5))
		assert.Equal(t, "5050", got.Dec())
	})

	t.Run("saturates at max", func(t *testing.T) {
		got := SatMul(Max(), FromUint64(2))
		assert.True(t, got.Eq(Max()))
	})

	t.Run("zero short-circuits", func(t *testing.T) {
		got := SatMul(Max(), Zero())
		assert.True(t, got.IsZero())
	})
}

func TestSub(t *testing.T) {
	assert.Equal(t, "3", Sub(FromUint64(5), FromUint64(2)).Dec())
	assert.True(t, Sub(FromUint64(2), FromUint64(5)).IsZero())
}

func TestParse(t *testing.T) {
	t.Run("valid decimal", func(t *testing.T) {
		v, err := Parse("100000")
		require.NoError(t, err)
		assert.Equal(t, uint64(100000), v.Uint64())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse("")
		assert.Error(t, err)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := Parse("-1")
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := Parse("12x4")
		assert.Error(t, err)
	})
}

func TestString(t *testing.T) {
	assert.Equal(t, "0", String(nil))
	assert.Equal(t, "42", String(uint256.NewInt(42)))
}
