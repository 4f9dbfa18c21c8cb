package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	tests := []struct {
		name    string
		in      int
		want    uint32
		wantErr bool
	}{
		{name: "zero", in: 0, want: 0},
		{name: "file size", in: 4097, want: 4097},
		{name: "max int32", in: math.MaxInt32, want: math.MaxInt32},
		{name: "negative", in: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntToUint32(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntToUint32_TooLarge(t *testing.T) {
	if math.MaxInt == math.MaxInt32 {
		t.Skip("int is 32 bits")
	}
	v := uint64(math.MaxUint32) + 1
	_, err := IntToUint32(int(v))
	assert.Error(t, err)
}

func TestUint64ToUint32(t *testing.T) {
	got, err := Uint64ToUint32(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = Uint64ToUint32(math.MaxUint32 + 1)
	assert.Error(t, err)
}

func TestUint32ToInt(t *testing.T) {
	got, err := Uint32ToInt(2048)
	require.NoError(t, err)
	assert.Equal(t, 2048, got)
}
