package pattern

import "sort"

// Interval is anything occupying a half-open byte interval [start, end).
type Interval interface {
	Interval() (start, end uint32)
}

func contains[T Interval](outer, inner T) bool {
	outerStart, outerEnd := outer.Interval()
	innerStart, innerEnd := inner.Interval()
	return outerStart <= innerStart && innerEnd <= outerEnd
}

// EarliestDeadlineSort sorts items by ascending end, placing a container
// after every interval nested in it. It returns false if two intervals
// overlap without one being nested in the other.
func EarliestDeadlineSort[T Interval](items []T) bool {
	sort.SliceStable(items, func(i, j int) bool {
		si, ei := items[i].Interval()
		sj, ej := items[j].Interval()
		if ei != ej {
			return ei < ej
		}
		return si > sj
	})

	// stack holds disjoint intervals ordered by end; every interval nested
	// in the current one sits at its top.
	var stack []T
	for _, item := range items {
		for len(stack) > 0 && contains(item, stack[len(stack)-1]) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			start, _ := item.Interval()
			_, prevEnd := stack[len(stack)-1].Interval()
			if prevEnd > start {
				return false
			}
		}
		stack = append(stack, item)
	}
	return true
}

// TopLevelIntervalsInRange returns the outer-most intervals lying within
// [start, end). items must already be sorted by EarliestDeadlineSort.
func TopLevelIntervalsInRange[T Interval](items []T, start, end uint32) []T {
	var top []T
	for _, item := range items {
		s, e := item.Interval()
		if s < start || e > end {
			continue
		}
		for len(top) > 0 && contains(item, top[len(top)-1]) {
			top = top[:len(top)-1]
		}
		top = append(top, item)
	}
	return top
}
