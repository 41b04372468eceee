package probe

import (
	"context"

	"github.com/telecine/playcore/internal/media/resolution"
)

// Result is the outcome of a preflight inspection of a local file's first
// video stream.
type Result struct {
	CodedWidth  int
	CodedHeight int

	// Inconsistent is set when either coded dimension is not an exact
	// member of the resolution catalog, implying the container's declared
	// display dimensions need an aspect-ratio correction.
	Inconsistent bool

	// Aspect is the derived correction; only meaningful when Inconsistent.
	Aspect resolution.Aspect
}

// Prober performs the one-shot, blocking preflight inspection. It applies to
// local files only; implementations must release all acquired resources on
// every path.
type Prober interface {
	Probe(ctx context.Context, uri string) (*Result, error)
}

// Evaluate derives a Result from true coded dimensions. Consistency is exact
// catalog membership of both dimensions; a taller-than-wide stream gets the
// portrait correction, anything else landscape.
func Evaluate(codedWidth, codedHeight int) *Result {
	r := &Result{
		CodedWidth:  codedWidth,
		CodedHeight: codedHeight,
	}

	if resolution.Member(codedWidth) && resolution.Member(codedHeight) {
		return r
	}

	r.Inconsistent = true
	if codedHeight > codedWidth {
		r.Aspect = resolution.Portrait
	} else {
		r.Aspect = resolution.Landscape
	}
	return r
}
