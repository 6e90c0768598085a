package plate

import (
	"math"
	"sort"

	"platereader/internal/models"
)

// CenterTolerance is the largest difference of Left+Right between two detections
// that are still treated as the same character slot.
const CenterTolerance = 5.0

// centerProxy is twice the horizontal center of the box.
func centerProxy(d models.Detection) float64 {
	return d.Left + d.Right
}

// Reduce keeps one detection per character slot, preferring the highest confidence,
// and returns the slots ordered by Left. Input order decides ties: the first slot
// seen wins unless a later duplicate has strictly greater confidence.
// Degenerate boxes are skipped.
func Reduce(detections []models.Detection) []models.Detection {
	slots := make([]models.Detection, 0, len(detections))

	for _, det := range detections {
		if det.Degenerate() {
			continue
		}

		matched := false
		cx := centerProxy(det)
		for i, slot := range slots {
			if math.Abs(centerProxy(slot)-cx) <= CenterTolerance {
				if det.Confidence > slot.Confidence {
					slots[i] = det
				}
				matched = true
				break
			}
		}
		if !matched {
			slots = append(slots, det)
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Left < slots[j].Left
	})
	return slots
}
