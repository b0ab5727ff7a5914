// Package decode drives a barcode engine across rotated variants of an image
// and turns the engine's free-text transcript into a structured Result.
//
// The Controller tries candidates in a fixed order (0°, 90° clockwise, 90°
// counter-clockwise, 180°) and stops at the first accepted transcript. Any
// polygon found on a rotated candidate is mapped back into the coordinate
// space of the original image before it is returned.
//
// Engines only have to satisfy the small Engine interface; everything that
// depends on the shape of a ZXing transcript is contained in ParseTranscript.
package decode
