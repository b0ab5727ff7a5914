// Package render draws a decoded symbol's polygon and payload onto a copy of
// the input image and writes the run's artifacts: the annotated image and the
// decoded text.
package render
