// Package engine provides the decode.Engine implementations: an in-process
// engine built on gozxing and an out-of-process engine that shells out to the
// ZXing CommandLineRunner, either inside a docker container or on a local JVM.
//
// Both engines emit the same transcript dialect so decode.ParseTranscript is
// the only parser. Availability reports which engines can run on this host and Select
// picks one for a configuration.
package engine
