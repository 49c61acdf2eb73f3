// Package sorting has small in-place sorts.
package sorting

import "cmp"

// Sorter sorts a slice of ints in ascending order.
type Sorter interface {
	Sort(a []int) []int
}

// BubbleSorter is a Sorter using bubble sort.
type BubbleSorter struct{}

// Sort sorts a in place and returns it.
func (BubbleSorter) Sort(a []int) []int {
	return BubbleSort(a)
}

// BubbleSort sorts a in place, ascending, and returns it. It stops early
// once a pass makes no swaps.
func BubbleSort[T cmp.Ordered](a []T) []T {
	for n := len(a); n > 1; n-- {
		swapped := false
		for i := 1; i < n; i++ {
			if a[i] < a[i-1] {
				a[i], a[i-1] = a[i-1], a[i]
				swapped = true
			}
		}
		if !swapped {
			break
		}
	}
	return a
}
