package player

import (
	"fmt"
	"strings"

	"github.com/telecine/playcore/internal/media/resolution"
)

// capsSpec describes the output caps applied to the decoded stage: pixel
// format, memory layout, and the optional explicit geometry and
// pixel-aspect-ratio overrides.
type capsSpec struct {
	// DMABuf selects the accelerated memory layout.
	DMABuf bool

	Format string

	// Width and Height pin the output geometry when > 0.
	Width  int
	Height int

	// PixelAspect is appended as a pixel-aspect-ratio fraction when set.
	PixelAspect resolution.Aspect
}

// String renders the spec as a caps string, e.g.
// "video/x-raw(memory:DMABuf),format=RGBA,pixel-aspect-ratio=16/9".
func (c capsSpec) String() string {
	var b strings.Builder

	if c.DMABuf {
		b.WriteString("video/x-raw(memory:DMABuf)")
	} else {
		b.WriteString("video/x-raw")
	}

	format := c.Format
	if format == "" {
		format = "RGBA"
	}
	fmt.Fprintf(&b, ",format=%s", format)

	if c.Width > 0 {
		fmt.Fprintf(&b, ",width=%d", c.Width)
	}
	if c.Height > 0 {
		fmt.Fprintf(&b, ",height=%d", c.Height)
	}
	if !c.PixelAspect.IsZero() {
		fmt.Fprintf(&b, ",pixel-aspect-ratio=%s", c.PixelAspect)
	}

	return b.String()
}
