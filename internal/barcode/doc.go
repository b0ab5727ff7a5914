// Package barcode names the symbologies codescan knows about and maps them
// to the identifiers used by the ZXing family of decoders.
//
// Decoding itself lives behind decode.Engine; this package only carries the
// catalogue so engines, configuration and the CLI agree on spelling.
package barcode
