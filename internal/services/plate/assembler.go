package plate

import (
	"strings"

	"platereader/internal/models"
)

// Format describes the two-group layout of a plate: a left group, one separator
// glyph and a right group.
type Format struct {
	Name      string
	Separator string
	// MaxLeft is the longest left group kept in front of the separator.
	MaxLeft int
	// MaxRight bounds the separator plus everything right of it.
	MaxRight int
	// StrayLeading is a glyph the character detector tends to report in front of
	// a short left group.
	StrayLeading string
}

// Taiwan is the default format: up to four characters, a dash, up to four digits.
var Taiwan = Format{
	Name:         "taiwan",
	Separator:    "-",
	MaxLeft:      4,
	MaxRight:     5,
	StrayLeading: "1",
}

// window is a view chars[lo:hi] over the ordered slots with the separator at the
// absolute index sep. All rules keep lo <= sep < hi.
type window struct {
	lo, sep, hi int
}

func (w window) left() int  { return w.sep - w.lo }
func (w window) right() int { return w.hi - w.sep }

// rule is one correction step. Rules read the window produced by the previous step.
type rule struct {
	name  string
	apply func(f Format, chars []models.Detection, w window) window
}

// rules run once each, in this order.
var rules = []rule{
	{"trim-left", trimLeft},
	{"trim-right", trimRight},
	{"drop-extra-leading", dropExtraLeading},
	{"drop-extra-trailing", dropExtraTrailing},
	{"drop-stray-leading", dropStrayLeading},
}

// trimLeft drops leading slots until the left group fits MaxLeft.
func trimLeft(f Format, _ []models.Detection, w window) window {
	if w.left() > f.MaxLeft {
		w.lo = w.sep - f.MaxLeft
	}
	return w
}

// trimRight drops trailing slots until the separator run fits MaxRight.
func trimRight(f Format, _ []models.Detection, w window) window {
	if w.right() > f.MaxRight {
		w.hi = w.sep + f.MaxRight
	}
	return w
}

// dropExtraLeading shortens a full left group when the right run is also full.
func dropExtraLeading(f Format, _ []models.Detection, w window) window {
	if w.right() == f.MaxRight && w.left() == f.MaxLeft {
		w.lo++
	}
	return w
}

// dropExtraTrailing removes the last slot of a full-left, one-short-right shape.
func dropExtraTrailing(f Format, _ []models.Detection, w window) window {
	if w.right() == f.MaxRight-1 && w.left() == f.MaxLeft {
		w.hi--
	}
	return w
}

// dropStrayLeading removes a leading StrayLeading glyph in front of a short left group.
func dropStrayLeading(f Format, chars []models.Detection, w window) window {
	if w.right() == f.MaxRight && w.left() == f.MaxLeft-1 && chars[w.lo].Label == f.StrayLeading {
		w.lo++
	}
	return w
}

// separatorIndex returns the index of the first separator glyph, or -1.
func (f Format) separatorIndex(chars []models.Detection) int {
	for i, c := range chars {
		if c.Label == f.Separator {
			return i
		}
	}
	return -1
}

// Assemble applies the format correction rules to slots ordered left to right and
// returns a new slice. Without a separator the slots are returned unchanged.
func (f Format) Assemble(chars []models.Detection) []models.Detection {
	sep := f.separatorIndex(chars)
	if sep < 0 {
		return append([]models.Detection(nil), chars...)
	}

	w := window{lo: 0, sep: sep, hi: len(chars)}
	for _, r := range rules {
		w = r.apply(f, chars, w)
	}

	out := make([]models.Detection, w.hi-w.lo)
	copy(out, chars[w.lo:w.hi])
	return out
}

// Assemble runs the Taiwan format rules.
func Assemble(chars []models.Detection) []models.Detection {
	return Taiwan.Assemble(chars)
}

// Text concatenates the slot labels.
func Text(chars []models.Detection) string {
	var sb strings.Builder
	for _, c := range chars {
		sb.WriteString(c.Label)
	}
	return sb.String()
}
