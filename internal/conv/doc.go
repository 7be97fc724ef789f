// Package conv provides checked integer conversions.
//
// Heap sizes and addresses travel as int inside the process but as uint64 in
// heap images and run indexes. Values read back from an image are untrusted,
// so every narrowing conversion goes through this package and reports
// overflow as an error instead of wrapping silently.
package conv
