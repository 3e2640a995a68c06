package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRect(t *testing.T) {
	tests := []struct {
		in      string
		want    Rect
		wantErr bool
	}{
		{in: "10 20 30 40", want: Rect{X: 10, Y: 20, Width: 30, Height: 40}},
		{in: "10%, 20%, 30%, 40%", want: Rect{X: 10, Y: 20, Width: 30, Height: 40}},
		{in: "12.5 0 50 60", want: Rect{X: 12.5, Width: 50, Height: 60}},
		{in: "10 20 30", wantErr: true},
		{in: "a b c d", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRect(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRect)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			back, err := ParseRect(got.Format())
			require.NoError(t, err)
			assert.Equal(t, got, back)
		})
	}
}
