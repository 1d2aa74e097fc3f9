package compress

import (
	"bytes"
	"unicode"

	"github.com/blockvault/blockvault/pkg/block"
)

// sniffWindow is the maximum number of leading bytes inspected for
// classification, matching the original implementation's 4 KiB sample
// cap (spec.md §4.3; original_source/src/module_c/adaptive_compress.c).
const sniffWindow = 4096

// magic byte sequences for already-compressed/archive content
// (original_source/src/module_c/adaptive_compress.c ac_is_already_compressed).
var magics = [][]byte{
	{0x1F, 0x8B},             // gzip
	{0x50, 0x4B, 0x03, 0x04}, // zip
	{0x78, 0x9C},             // zlib
	{0x28, 0xB5, 0x2F, 0xFD}, // zstd
	{0x04, 0x22, 0x4D, 0x18}, // lz4
}

// IsAlreadyCompressed reports whether plaintext begins with a known
// compressed-archive magic number.
func IsAlreadyCompressed(plaintext []byte) bool {
	for _, m := range magics {
		if len(plaintext) >= len(m) && bytes.Equal(plaintext[:len(m)], m) {
			return true
		}
	}
	return false
}

// looksText reports whether the sample has a printable-character ratio
// above 0.8 (spec.md §4.3).
func looksText(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	var printable int
	for _, c := range sample {
		if c == '\n' || c == '\r' || c == '\t' || (unicode.IsPrint(rune(c)) && c < 0x7F) {
			printable++
		}
	}
	ratio := float64(printable) / float64(len(sample))
	return ratio > 0.8
}

// Classify inspects at most the first 4 KiB of plaintext and returns its
// content class (spec.md §4.3).
func Classify(plaintext []byte) block.Class {
	if len(plaintext) == 0 {
		return block.ClassUnknown
	}
	if IsAlreadyCompressed(plaintext) {
		return block.ClassCompressed
	}
	sample := plaintext
	if len(sample) > sniffWindow {
		sample = sample[:sniffWindow]
	}
	if looksText(sample) {
		return block.ClassText
	}
	return block.ClassBinary
}
