// Package postprocess decodes raw YOLO output tensors into labeled boxes.
//
// It is kept free of OpenCV so it can be tested without native libraries.
package postprocess

import (
	"fmt"
	"sort"
)

// Box is a candidate detection in original image pixels.
type Box struct {
	Left, Top, Right, Bottom float64
	Score                    float64
	Class                    int
}

// Area returns the box area, zero for degenerate boxes.
func (b Box) Area() float64 {
	w := b.Right - b.Left
	h := b.Bottom - b.Top
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection over union of two boxes.
func IoU(a, b Box) float64 {
	ix := min(a.Right, b.Right) - max(a.Left, b.Left)
	iy := min(a.Bottom, b.Bottom) - max(a.Top, b.Top)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Geometry maps network input coordinates back to the original image.
type Geometry struct {
	ScaleX, ScaleY float64
	Width, Height  int // original image size, used for clamping
}

// DecodeYOLOv8 reads an output tensor of shape [1, 4+classes, anchors] laid out
// row major (all cx values, then all cy values, ...). Boxes scoring below
// minScore are dropped.
func DecodeYOLOv8(data []float32, channels, anchors int, geo Geometry, minScore float64) ([]Box, error) {
	if channels < 5 {
		return nil, fmt.Errorf("unexpected output channels: %d", channels)
	}
	if len(data) < channels*anchors {
		return nil, fmt.Errorf("output tensor too small: %d values for %dx%d", len(data), channels, anchors)
	}

	classes := channels - 4
	var boxes []Box
	for i := 0; i < anchors; i++ {
		best := float32(0)
		classID := 0
		for c := 0; c < classes; c++ {
			score := data[(4+c)*anchors+i]
			if score > best {
				best = score
				classID = c
			}
		}
		if float64(best) < minScore {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])

		b := Box{
			Left:   clamp((cx-w/2)*geo.ScaleX, geo.Width),
			Top:    clamp((cy-h/2)*geo.ScaleY, geo.Height),
			Right:  clamp((cx+w/2)*geo.ScaleX, geo.Width),
			Bottom: clamp((cy+h/2)*geo.ScaleY, geo.Height),
			Score:  float64(best),
			Class:  classID,
		}
		if b.Area() == 0 {
			continue
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

func clamp(v float64, limit int) float64 {
	if v < 0 {
		return 0
	}
	if limit > 0 && v > float64(limit) {
		return float64(limit)
	}
	return v
}

// NMS runs per-class non-maximum suppression and returns the surviving boxes
// ordered by descending score.
func NMS(boxes []Box, iouThreshold float64) []Box {
	sorted := append([]Box(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	kept := make([]Box, 0, len(sorted))
	for _, b := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.Class == b.Class && IoU(k, b) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, b)
		}
	}
	return kept
}
