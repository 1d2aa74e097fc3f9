package compress

import "errors"

// errIncompressible signals that an algorithm could not shrink the
// input; the dedup pipeline treats this the same as "result not
// strictly smaller than input" and stores the block as plaintext
// (spec.md §4.3).
var errIncompressible = errors.New("compress: incompressible input")
