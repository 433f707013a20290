package benchmark

import (
	"context"
	"testing"

	"github.com/SimplexDevelopment/SimplexSS/pkg/streaming/stream"
)

func ints(size int) []int {
	data := make([]int, size)
	for i := range data {
		data[i] = i
	}
	return data
}

// BenchmarkToSlice measures draining a slice-backed stream.
func BenchmarkToSlice(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		data := ints(size)
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.FromSlice(data).ToSlice(context.Background())
			}
		})
	}
}

// BenchmarkChainedOperations measures chained filter+map performance.
func BenchmarkChainedOperations(b *testing.B) {
	for _, size := range []int{100, 1000} {
		data := ints(size)
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := stream.FromSlice(data).
					Filter(func(n int) bool { return n%2 == 0 }).
					Map(func(n int) int { return n * 2 }).
					Limit(int64(size / 4))
				_, _ = s.Count(context.Background())
			}
		})
	}
}

// BenchmarkConcat measures the per-pool concatenation used by QueueAll.
func BenchmarkConcat(b *testing.B) {
	data := ints(10)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		parts := make([]stream.Stream[int], 8)
		for j := range parts {
			parts[j] = stream.FromSlice(data)
		}
		_ = stream.Concat(parts...).ForEach(context.Background(), func(int) {})
	}
}

// BenchmarkFromFunc measures a generator-backed stream.
func BenchmarkFromFunc(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		n := 0
		s := stream.FromFunc(func(context.Context) (int, bool, error) {
			if n == 100 {
				return 0, false, nil
			}
			n++
			return n, true, nil
		})
		_, _ = s.Count(context.Background())
	}
}

func sizeLabel(size int) string {
	switch {
	case size >= 1000:
		return "1k"
	case size >= 100:
		return "100"
	default:
		return "10"
	}
}
