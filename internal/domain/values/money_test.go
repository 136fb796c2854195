package values

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(450), "eur")
	require.NoError(t, err)
	assert.Equal(t, EUR, m.Currency())
	assert.Equal(t, "450.00 EUR", m.String())

	_, err = NewMoney(decimal.NewFromInt(1), "")
	assert.Error(t, err)

	_, err = NewMoney(decimal.NewFromInt(1), "BTC")
	assert.Error(t, err)

	_, err = NewMoney(decimal.NewFromInt(1), "EURO")
	assert.Error(t, err)
}

func TestMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("123.45", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "123.45 EUR", m.String())

	_, err = NewMoneyFromString("not a number", "EUR")
	assert.Error(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustNewMoneyFromFloat(100.50, EUR)
	b := MustNewMoneyFromFloat(49.50, EUR)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "150.00 EUR", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "51.00 EUR", diff.String())

	doubled := a.MulFloat(2)
	assert.Equal(t, "201.00 EUR", doubled.String())

	usd := MustNewMoneyFromFloat(5, USD)
	_, err = a.Add(usd)
	assert.Error(t, err)
}

func TestMoneyComparisons(t *testing.T) {
	a := MustNewMoneyFromFloat(100, EUR)
	b := MustNewMoneyFromFloat(100, EUR)
	c := MustNewMoneyFromFloat(200, EUR)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, -1, a.Compare(c))
	assert.Equal(t, 0, a.Compare(b))
	assert.True(t, Zero(EUR).IsZero())
	assert.True(t, a.IsPositive())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := MustNewMoneyFromFloat(450.5, EUR)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"450.5","currency":"EUR"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`{"amount":"x","currency":"EUR"}`), &bad))
}
