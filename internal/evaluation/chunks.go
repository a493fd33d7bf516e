package evaluation

import "iter"

// GenerateBatchSizedChunks yields successive slices of at most batchSize
// elements, covering elements once and in order. The sequence is lazy and
// can be ranged over any number of times. A batchSize below 1 yields nothing.
func GenerateBatchSizedChunks[E any](elements []E, batchSize int) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		if batchSize < 1 {
			return
		}
		for i := 0; i < len(elements); i += batchSize {
			end := min(i+batchSize, len(elements))
			if !yield(elements[i:end:end]) {
				return
			}
		}
	}
}
