package postprocess

import (
	"math"
	"testing"
)

// tensor builds a [4+classes, anchors] buffer from per-anchor rows.
func tensor(rows [][]float32) ([]float32, int, int) {
	anchors := len(rows)
	channels := len(rows[0])
	data := make([]float32, channels*anchors)
	for i, row := range rows {
		for c, v := range row {
			data[c*anchors+i] = v
		}
	}
	return data, channels, anchors
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float64
	}{
		{"identical", Box{0, 0, 10, 10, 1, 0}, Box{0, 0, 10, 10, 1, 0}, 1},
		{"disjoint", Box{0, 0, 10, 10, 1, 0}, Box{20, 20, 30, 30, 1, 0}, 0},
		{"touching", Box{0, 0, 10, 10, 1, 0}, Box{10, 0, 20, 10, 1, 0}, 0},
		{"half overlap", Box{0, 0, 10, 10, 1, 0}, Box{5, 0, 15, 10, 1, 0}, 50.0 / 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IoU(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IoU = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeYOLOv8(t *testing.T) {
	data, channels, anchors := tensor([][]float32{
		// cx, cy, w, h, class0, class1
		{100, 50, 20, 40, 0.1, 0.9},
		{300, 50, 20, 40, 0.3, 0.2},
		{10, 10, 40, 40, 0.95, 0.0},
	})

	geo := Geometry{ScaleX: 2, ScaleY: 0.5, Width: 1000, Height: 1000}
	boxes, err := DecodeYOLOv8(data, channels, anchors, geo, 0.5)
	if err != nil {
		t.Fatalf("DecodeYOLOv8 failed: %v", err)
	}

	if len(boxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(boxes))
	}

	first := boxes[0]
	if first.Class != 1 || math.Abs(first.Score-0.9) > 1e-6 {
		t.Errorf("first box: class %d score %v", first.Class, first.Score)
	}
	if first.Left != 180 || first.Right != 220 || first.Top != 15 || first.Bottom != 35 {
		t.Errorf("first box coordinates: %+v", first)
	}

	// third anchor extends past the origin and is clamped
	second := boxes[1]
	if second.Left != 0 || second.Top != 0 {
		t.Errorf("expected clamped box, got %+v", second)
	}
}

func TestDecodeYOLOv8_BadShape(t *testing.T) {
	if _, err := DecodeYOLOv8(make([]float32, 10), 4, 2, Geometry{}, 0.5); err == nil {
		t.Error("expected error for too few channels")
	}
	if _, err := DecodeYOLOv8(make([]float32, 10), 6, 5, Geometry{}, 0.5); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestNMS(t *testing.T) {
	boxes := []Box{
		{0, 0, 10, 10, 0.6, 0},
		{1, 0, 11, 10, 0.9, 0},
		{1, 0, 11, 10, 0.8, 1},
		{50, 0, 60, 10, 0.5, 0},
	}

	kept := NMS(boxes, 0.5)

	if len(kept) != 3 {
		t.Fatalf("got %d boxes, want 3", len(kept))
	}
	if kept[0].Score != 0.9 {
		t.Errorf("expected highest score first, got %v", kept[0].Score)
	}
	for _, k := range kept {
		if k.Score == 0.6 {
			t.Error("overlapping lower-score box of the same class should be suppressed")
		}
	}
	if boxes[0].Score != 0.6 {
		t.Error("input slice was reordered")
	}
}
