package plate

import "platereader/internal/models"

// Recognizer turns the raw detections of one plate crop into plate text.
type Recognizer struct {
	format Format
}

// NewRecognizer returns a Recognizer for the given format.
func NewRecognizer(format Format) *Recognizer {
	return &Recognizer{format: format}
}

// Format returns the plate format the recognizer applies.
func (r *Recognizer) Format() Format {
	return r.format
}

// Characters returns the reduced and corrected slots, left to right.
func (r *Recognizer) Characters(detections []models.Detection) []models.Detection {
	return r.format.Assemble(Reduce(detections))
}

// Recognize returns the plate text; empty when nothing survives.
func (r *Recognizer) Recognize(detections []models.Detection) string {
	return Text(r.Characters(detections))
}
