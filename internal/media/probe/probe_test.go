package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telecine/playcore/internal/media/resolution"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		height       int
		inconsistent bool
		aspect       resolution.Aspect
	}{
		{"both catalog members", 1920, 1080, false, resolution.Aspect{}},
		{"4k members", 3480, 2160, false, resolution.Aspect{}},
		{"portrait members", 1080, 1920, false, resolution.Aspect{}},
		{"landscape off-catalog width", 1280, 1080, true, resolution.Landscape},
		{"landscape off-catalog height", 1920, 800, true, resolution.Landscape},
		{"portrait off-catalog", 720, 1280, true, resolution.Portrait},
		{"square counts as landscape", 1000, 1000, true, resolution.Landscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.width, tt.height)
			assert.Equal(t, tt.width, result.CodedWidth)
			assert.Equal(t, tt.height, result.CodedHeight)
			assert.Equal(t, tt.inconsistent, result.Inconsistent)
			assert.Equal(t, tt.aspect, result.Aspect)
		})
	}
}
