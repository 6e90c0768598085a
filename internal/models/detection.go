package models

// Detection is one labeled, confidence-scored bounding box returned by a detector.
// Coordinates are pixels within the image the detector was given.
type Detection struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Right      float64 `json:"right"`
	Bottom     float64 `json:"bottom"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// Width returns the horizontal extent of the box.
func (d Detection) Width() float64 {
	return d.Right - d.Left
}

// Height returns the vertical extent of the box.
func (d Detection) Height() float64 {
	return d.Bottom - d.Top
}

// Degenerate reports whether the box has no area.
func (d Detection) Degenerate() bool {
	return d.Left >= d.Right || d.Top >= d.Bottom
}
