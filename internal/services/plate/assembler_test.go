package plate

import (
	"testing"

	"platereader/internal/models"
)

// seq builds left-to-right slots from single-glyph labels.
func seq(labels ...string) []models.Detection {
	out := make([]models.Detection, len(labels))
	for i, l := range labels {
		out[i] = glyph(float64(i*20), l)
	}
	return out
}

func split(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no separator short", "ABC", "ABC"},
		{"no separator long", "1234567890ABCDEF", "1234567890ABCDEF"},
		{"valid 3-4", "ABC-1234", "ABC-1234"},
		{"valid 2-4", "AB-1234", "AB-1234"},
		{"valid 4-2", "ABCD-12", "ABCD-12"},
		{"valid 3-3", "ABC-123", "ABC-123"},
		{"left trimmed to four then rule A", "XYABCD-1234", "BCD-1234"},
		{"left trimmed to four, short right", "XYABCD-12", "ABCD-12"},
		{"right trimmed then rule A", "ABCD-12345", "BCD-1234"},
		{"right trimmed many", "AB-123456789", "AB-1234"},
		{"rule B drops one trailing", "ABCD-123", "ABCD-12"},
		{"rule C drops stray one", "1AB-1234", "AB-1234"},
		{"rule C needs leading one", "7AB-1234", "7AB-1234"},
		{"rule C needs full right", "1AB-123", "1AB-123"},
		{"separator first", "-1234567", "-1234"},
		{"separator last", "ABCDEFG-", "DEFG-"},
		{"only separator", "-", "-"},
		{"first separator anchors", "AB-12-34", "AB-12-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(Assemble(seq(split(tt.input)...)))
			if got != tt.want {
				t.Errorf("Assemble(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAssemble_RulesRunOnce(t *testing.T) {
	// After rule A the shape is 3-left/5-right again, but rule A does not re-run.
	got := Text(Assemble(seq(split("ABCD-1234")...)))
	if got != "BCD-1234" {
		t.Errorf("got %q, want BCD-1234", got)
	}

	// Rule C only removes one stray leading glyph.
	got = Text(Assemble(seq(split("11A-1234")...)))
	if got != "1A-1234" {
		t.Errorf("got %q, want 1A-1234", got)
	}
}

func TestAssemble_DoesNotMutateInput(t *testing.T) {
	input := seq(split("XYABCD-12345")...)
	before := Text(input)

	Assemble(input)

	if Text(input) != before || len(input) != 12 {
		t.Errorf("input modified: %q", Text(input))
	}
}

func TestAssemble_NeverGrows(t *testing.T) {
	inputs := []string{"", "-", "A-", "-A", "ABCDEFGH-IJKLMNOP", "1-1", "111-11111"}
	for _, in := range inputs {
		if got := Assemble(seq(split(in)...)); len(got) > len(in) {
			t.Errorf("Assemble(%q) grew to %d", in, len(got))
		}
	}
}

func TestRuleOrder(t *testing.T) {
	want := []string{"trim-left", "trim-right", "drop-extra-leading", "drop-extra-trailing", "drop-stray-leading"}
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.name != want[i] {
			t.Errorf("rule %d: got %s, want %s", i, r.name, want[i])
		}
	}
}

func TestRules_Isolated(t *testing.T) {
	chars := seq(split("1ABCDEF-123456")...)
	sep := 7

	tests := []struct {
		name string
		fn   func(Format, []models.Detection, window) window
		in   window
		want window
	}{
		{"trimLeft over", trimLeft, window{0, sep, 14}, window{3, sep, 14}},
		{"trimLeft at limit", trimLeft, window{3, sep, 14}, window{3, sep, 14}},
		{"trimRight over", trimRight, window{3, sep, 14}, window{3, sep, 12}},
		{"trimRight at limit", trimRight, window{3, sep, 12}, window{3, sep, 12}},
		{"dropExtraLeading 4/5", dropExtraLeading, window{3, sep, 12}, window{4, sep, 12}},
		{"dropExtraLeading 3/5", dropExtraLeading, window{4, sep, 12}, window{4, sep, 12}},
		{"dropExtraLeading 4/4", dropExtraLeading, window{3, sep, 11}, window{3, sep, 11}},
		{"dropExtraTrailing 4/4", dropExtraTrailing, window{3, sep, 11}, window{3, sep, 10}},
		{"dropExtraTrailing 4/5", dropExtraTrailing, window{3, sep, 12}, window{3, sep, 12}},
		{"dropExtraTrailing 3/4", dropExtraTrailing, window{4, sep, 11}, window{4, sep, 11}},
		{"dropStrayLeading not one", dropStrayLeading, window{4, sep, 12}, window{4, sep, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(Taiwan, chars, tt.in); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	ones := seq(split("1AB-1234")...)
	if got := dropStrayLeading(Taiwan, ones, window{0, 3, 8}); got != (window{1, 3, 8}) {
		t.Errorf("dropStrayLeading with leading 1: got %+v", got)
	}
}

func TestFormat_CustomSeparator(t *testing.T) {
	f := Taiwan
	f.Separator = "·"

	got := Text(f.Assemble(seq("X", "A", "B", "C", "D", "·", "1", "2", "3", "4", "5")))
	if got != "BCD·1234" {
		t.Errorf("got %q, want BCD·1234", got)
	}

	// the dash is an ordinary glyph for this format
	if got := Text(f.Assemble(seq(split("ABCDEF-123456")...))); got != "ABCDEF-123456" {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestRecognizer(t *testing.T) {
	r := NewRecognizer(Taiwan)

	if got := r.Recognize(nil); got != "" {
		t.Errorf("Recognize(nil) = %q, want empty", got)
	}

	// duplicates of "B" and the dash, shuffled arrival order
	detections := []models.Detection{
		{Left: 100, Top: 0, Right: 110, Bottom: 20, Confidence: 0.9, Label: "1"},
		{Left: 20, Top: 0, Right: 30, Bottom: 20, Confidence: 0.8, Label: "B"},
		{Left: 21, Top: 0, Right: 31, Bottom: 20, Confidence: 0.6, Label: "8"},
		{Left: 0, Top: 0, Right: 10, Bottom: 20, Confidence: 0.9, Label: "A"},
		{Left: 60, Top: 0, Right: 70, Bottom: 20, Confidence: 0.7, Label: "-"},
		{Left: 40, Top: 0, Right: 50, Bottom: 20, Confidence: 0.9, Label: "C"},
		{Left: 80, Top: 0, Right: 90, Bottom: 20, Confidence: 0.9, Label: "7"},
		{Left: 120, Top: 0, Right: 130, Bottom: 20, Confidence: 0.9, Label: "2"},
		{Left: 140, Top: 0, Right: 150, Bottom: 20, Confidence: 0.9, Label: "3"},
	}

	if got := r.Recognize(detections); got != "ABC-7123" {
		t.Errorf("Recognize = %q, want ABC-7123", got)
	}
	if got := r.Format().Name; got != "taiwan" {
		t.Errorf("Format().Name = %q", got)
	}
}
