package internal

import (
	"iter"
	"maps"
	"slices"
)

// IterSeq2Concat concatenates multiple dual-return iterators into a single iterator sequence.
func IterSeq2Concat[T1 any, T2 any](seqs ...iter.Seq2[T1, T2]) iter.Seq2[T1, T2] {
	return func(yield func(T1, T2) bool) {
		for _, seq := range seqs {
			for val1, val2 := range seq {
				if !yield(val1, val2) {
					return
				}
			}
		}
	}
}

// SortedDefines returns the define table of a sequence, in key order.
// Later keys replace earlier ones.
func SortedDefines(seq iter.Seq2[string, string]) (keys []string, table map[string]string) {
	table = maps.Collect(seq)
	keys = slices.Sorted(maps.Keys(table))
	return
}
