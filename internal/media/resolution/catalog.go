package resolution

import (
	"errors"
	"fmt"
	"sort"
)

// catalog is the fixed ascending set of reference dimensions supported by
// the output stage.
var catalog = []int{1080, 1920, 2160, 3480}

// ErrOutOfRange is returned when a requested dimension exceeds the largest
// catalog entry.
var ErrOutOfRange = errors.New("resolution: requested dimension exceeds catalog maximum")

// Max returns the largest catalog dimension.
func Max() int {
	return catalog[len(catalog)-1]
}

// Normalize maps a raw requested dimension to the smallest catalog value not
// less than it. Values above the catalog maximum have no defined mapping and
// fail with ErrOutOfRange.
func Normalize(value int) (int, error) {
	i := sort.SearchInts(catalog, value)
	if i == len(catalog) {
		return 0, fmt.Errorf("%w: %d > %d", ErrOutOfRange, value, Max())
	}
	return catalog[i], nil
}

// Member reports whether a dimension is an exact catalog entry. The
// preflight probe uses membership, not range normalization, when deciding
// whether coded dimensions are consistent.
func Member(value int) bool {
	i := sort.SearchInts(catalog, value)
	return i < len(catalog) && catalog[i] == value
}

// Aspect is a pixel-aspect-ratio fraction applied to output caps.
type Aspect struct {
	Num int
	Den int
}

var (
	// Landscape is the 16/9 correction applied to landscape content.
	Landscape = Aspect{Num: 16, Den: 9}
	// Portrait is the 9/16 correction applied to portrait content.
	Portrait = Aspect{Num: 9, Den: 16}
	// Square is the neutral 1/1 ratio used with explicit stream dimensions.
	Square = Aspect{Num: 1, Den: 1}
)

// IsZero reports whether no aspect hint is set.
func (a Aspect) IsZero() bool {
	return a.Num == 0 && a.Den == 0
}

// String formats the fraction the way caps strings expect, e.g. "16/9".
func (a Aspect) String() string {
	return fmt.Sprintf("%d/%d", a.Num, a.Den)
}
