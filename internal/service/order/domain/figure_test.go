package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		figure  Figure
		wantErr bool
	}{
		{"right triangle", Triangle{A: 3, B: 4, C: 5}, false},
		{"triangle violating inequality", Triangle{A: 1, B: 1, C: 3}, true},
		{"triangle with sides on a line", Triangle{A: 1, B: 1, C: 2}, true},
		{"triangle violating on first side", Triangle{A: 10, B: 2, C: 3}, true},
		{"triangle with negative side", Triangle{A: -1, B: 2, C: 2}, true},
		{"square", Square{Side: 2}, false},
		{"zero square", Square{Side: 0}, false},
		{"negative square", Square{Side: -1}, true},
		{"circle", Circle{Radius: 1}, false},
		{"zero circle", Circle{Radius: 0}, false},
		{"negative circle", Circle{Radius: -0.5}, true},
		{"missing figure", nil, true},
		{"square whose area overflows", Square{Side: 1e200}, true},
		{"circle whose area overflows", Circle{Radius: 1e160}, true},
		{"triangle whose area overflows", Triangle{A: 1e200, B: 1e200, C: 1e200}, true},
		{"infinite square", Square{Side: math.Inf(1)}, true},
		{"NaN circle", Circle{Radius: math.NaN()}, true},
		{"NaN triangle side", Triangle{A: math.NaN(), B: 1, C: 1}, true},
		{"large but finite square", Square{Side: 1e100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.figure)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFigure)

			var invalid *InvalidFigureError
			require.True(t, errors.As(err, &invalid))
			assert.NotEmpty(t, invalid.Reason)
		})
	}
}

func TestArea(t *testing.T) {
	assert.InDelta(t, 6.0, Area(Triangle{A: 3, B: 4, C: 5}), 1e-9)
	assert.InDelta(t, 4.0, Area(Square{Side: 2}), 1e-9)
	assert.InDelta(t, math.Pi*9, Area(Circle{Radius: 3}), 1e-9)
	assert.Zero(t, Area(Square{Side: 0}))
}

func TestValidFiguresAlwaysPrice(t *testing.T) {
	for _, f := range []Figure{
		Square{Side: 1e100},
		Circle{Radius: 1e150},
		Triangle{A: 1e70, B: 1e70, C: 1e70},
		Triangle{A: 1, B: 1, C: 2 - 1e-15},
	} {
		require.NoError(t, Validate(f), "%#v", f)
		assert.NotPanics(t, func() { Price(f) }, "%#v", f)
	}
}

func TestValidateCart(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		assert.ErrorIs(t, ValidateCart(Cart{}), ErrEmptyCart)
	})

	t.Run("non-positive count", func(t *testing.T) {
		err := ValidateCart(Cart{Positions: []Position{
			{Figure: Square{Side: 1}, Count: 1},
			{Figure: Circle{Radius: 1}, Count: 0},
		}})
		require.ErrorIs(t, err, ErrInvalidPosition)

		var pos *InvalidPositionError
		require.ErrorAs(t, err, &pos)
		assert.Equal(t, 1, pos.Index)
	})

	t.Run("first invalid figure wins", func(t *testing.T) {
		err := ValidateCart(Cart{Positions: []Position{
			{Figure: Triangle{A: 1, B: 1, C: 3}, Count: 1},
			{Figure: Square{Side: -1}, Count: 1},
		}})
		var invalid *InvalidFigureError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, KindTriangle, invalid.Kind)
	})

	t.Run("valid cart", func(t *testing.T) {
		assert.NoError(t, ValidateCart(Cart{Positions: []Position{
			{Figure: Triangle{A: 3, B: 4, C: 5}, Count: 2},
			{Figure: Square{Side: 2}, Count: 5},
		}}))
	})
}
