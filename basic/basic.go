// Package basic has a couple of arithmetic helpers.
package basic

// IsEven reports whether n is even.
func IsEven(n int) bool {
	return n%2 == 0
}

// Sum returns 1+2+...+n, or 0 when n <= 0.
func Sum(n int) int {
	if n <= 0 {
		return 0
	}
	return n * (n + 1) / 2
}
