// Package plate turns raw character detections from one plate crop into plate text.
//
// Recognition runs in two steps:
//
//  1. Reduce collapses overlapping detections of the same glyph into one slot per
//     physical character position and orders the slots left to right.
//  2. Assemble uses the separator glyph as an anchor and trims the ordered slots to
//     the character-group shapes a Format allows.
//
// Both steps are pure functions: they never fail, never mutate their input and
// degrade to a defined fallback (empty output, or the input unchanged when no
// separator is present).
package plate
