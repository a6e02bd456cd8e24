package compile

// Range is a half-open index interval [Start, End) assigned to one task.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.End - r.Start }

// SplitRange partitions [0, total) into task ranges for a desired task
// count: task size = ceil(total/desired), task count = ceil(total/size).
// The ranges are sorted, disjoint, contiguous, and exactly tile [0, total);
// a zero total yields no ranges.
func SplitRange(total, desired int) []Range {
	if total <= 0 {
		return nil
	}
	if desired < 1 {
		desired = 1
	}
	size := ceilDiv(total, desired)
	count := ceilDiv(total, size)
	ranges := make([]Range, 0, count)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
