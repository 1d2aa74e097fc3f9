// Package compress implements Adaptive Compression: content
// classification, algorithm/level selection under load, and the
// compress/decompress dispatch table (spec.md §4.3).
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/blockvault/blockvault/pkg/block"
	"github.com/blockvault/blockvault/pkg/bufpool"
)

// compressFunc and decompressFunc match the original source's
// function-pointer-per-algorithm table; re-architected here as a fixed
// Go array indexed by Algo, per spec.md §9's guidance against an open
// plugin registry.
type compressFunc func(plaintext []byte, level int) ([]byte, error)
type decompressFunc func(compressed []byte, plainSize int) ([]byte, error)

var compressors = [...]compressFunc{
	block.AlgoNone: func(p []byte, _ int) ([]byte, error) { return p, nil },
	block.AlgoLZ4:  compressLZ4,
	block.AlgoZstd: compressZstd,
	block.AlgoGzip: compressGzip,
}

var decompressors = [...]decompressFunc{
	block.AlgoNone: func(c []byte, _ int) ([]byte, error) { return c, nil },
	block.AlgoLZ4:  decompressLZ4,
	block.AlgoZstd: decompressZstd,
	block.AlgoGzip: decompressGzip,
}

// Compress runs algo over plaintext at the given level. Returns the
// compressed bytes.
func Compress(algo block.Algo, level int, plaintext []byte) ([]byte, error) {
	if int(algo) >= len(compressors) {
		return nil, fmt.Errorf("compress: unknown algorithm %v", algo)
	}
	return compressors[algo](plaintext, level)
}

// Decompress reverses Compress, given the original plaintext size.
func Decompress(algo block.Algo, compressed []byte, plainSize int) ([]byte, error) {
	if int(algo) >= len(decompressors) {
		return nil, fmt.Errorf("decompress: unknown algorithm %v", algo)
	}
	return decompressors[algo](compressed, plainSize)
}

// compressLZ4's worst-case output can exceed the input size, so the
// scratch buffer holding it comes from bufpool rather than a fresh
// make() on every call; only the final right-sized copy escapes.
func compressLZ4(plaintext []byte, _ int) ([]byte, error) {
	scratch := bufpool.Get(lz4.CompressBlockBound(len(plaintext)))
	defer bufpool.Put(scratch)

	var c lz4.Compressor
	n, err := c.CompressBlock(plaintext, scratch)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 {
		// Incompressible input: pierrec/lz4 reports this rather than
		// writing an expanded block.
		return nil, errIncompressible
	}
	out := make([]byte, n)
	copy(out, scratch[:n])
	return out, nil
}

func decompressLZ4(compressed []byte, plainSize int) ([]byte, error) {
	dst := make([]byte, plainSize)
	n, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return dst[:n], nil
}

func compressZstd(plaintext []byte, level int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(plaintext, make([]byte, 0, len(plaintext))), nil
}

func decompressZstd(compressed []byte, plainSize int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, make([]byte, 0, plainSize))
}

func compressGzip(plaintext []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressGzip(compressed []byte, plainSize int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()
	out := make([]byte, 0, plainSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return buf.Bytes(), nil
}
