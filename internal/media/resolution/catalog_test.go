package resolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		value    int
		expected int
		wantErr  bool
	}{
		{"below catalog", 1000, 1080, false},
		{"exact member", 1920, 1920, false},
		{"between members", 2000, 2160, false},
		{"another between", 3000, 3480, false},
		{"catalog maximum", 3480, 3480, false},
		{"zero", 0, 1080, false},
		{"above maximum", 4000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMember(t *testing.T) {
	for _, v := range []int{1080, 1920, 2160, 3480} {
		assert.True(t, Member(v), "expected %d to be a catalog member", v)
	}
	for _, v := range []int{0, 720, 1079, 1081, 3000, 4000} {
		assert.False(t, Member(v), "expected %d to not be a catalog member", v)
	}
}

func TestMax(t *testing.T) {
	assert.Equal(t, 3480, Max())
}

func TestAspect(t *testing.T) {
	assert.Equal(t, "16/9", Landscape.String())
	assert.Equal(t, "9/16", Portrait.String())
	assert.Equal(t, "1/1", Square.String())

	assert.True(t, Aspect{}.IsZero())
	assert.False(t, Landscape.IsZero())
}
