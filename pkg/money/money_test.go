package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRound2(t *testing.T) {
	assert.True(t, d("10.01").Equal(Round2(d("10.005"))))
	assert.True(t, d("-10.01").Equal(Round2(d("-10.005"))))
	assert.True(t, d("3.14").Equal(Round2(d("3.14159"))))
}

func TestSum(t *testing.T) {
	assert.True(t, d("0.3").Equal(Sum(d("0.1"), d("0.2"))))
	assert.True(t, Sum().IsZero())
}

func TestPercent(t *testing.T) {
	assert.True(t, d("-2.5").Equal(Percent(d("-25"), d("1000"))))
	assert.True(t, Percent(d("5"), decimal.Zero).IsZero())
}

func TestParse(t *testing.T) {
	got, err := Parse(" 12,500.50 ")
	require.NoError(t, err)
	assert.True(t, d("12500.5").Equal(got))

	_, err = Parse("")
	assert.Error(t, err)
	_, err = Parse("12a")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1,234,567.89", Format(d("1234567.891")))
	assert.Equal(t, "-950.00", Format(d("-950")))
	assert.Equal(t, "0.50", Format(d("0.5")))
}
