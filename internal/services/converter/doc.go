// Package converter wraps the external audio-extraction CLI.
//
// The tool is treated as a black box: it is handed a source reference, an
// output template, and metadata pairs, and in return emits human-readable
// progress lines on its standard streams and an exit code. Every line is
// forwarded to the caller so progress estimation stays outside this
// package. Spawn failures and nonzero exits are reported as distinct error
// types because the lifecycle controller handles them differently.
package converter
