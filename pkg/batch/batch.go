// Package batch splits ordered record sequences into size-bounded batches
// for submission under per-endpoint payload limits.
package batch

import (
	"iter"
	"slices"

	"github.com/agentstation/marketsync/pkg/errors"
)

// Chunk returns a lazy sequence of consecutive sub-slices of s, each of
// length size except possibly the last. Concatenating the chunks reproduces s.
// The sequence can be ranged over any number of times.
func Chunk[T any](s []T, size int) (iter.Seq[[]T], error) {
	if size <= 0 {
		return nil, errors.NewValidationError("size", size, "batch size must be positive")
	}
	return slices.Chunk(s, size), nil
}

// Split is the eager form of Chunk.
func Split[T any](s []T, size int) ([][]T, error) {
	seq, err := Chunk(s, size)
	if err != nil {
		return nil, err
	}
	out := make([][]T, 0, Count(len(s), size))
	for c := range seq {
		out = append(out, c)
	}
	return out, nil
}

// Count returns the number of batches n records split into at the given size.
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
