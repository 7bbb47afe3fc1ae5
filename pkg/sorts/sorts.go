// Package sorts holds the textbook sorts that drive a visual array. They
// annotate the array the way a viewer expects: selection sort points at
// every scanned element and marks each new minimum, merge sort marks the
// range it is about to merge.
package sorts

import (
	"fmt"
	"math"
	"sort"
)

// Array is the subset of *visualarr.VisualArray the sorts drive.
type Array interface {
	Len() int
	Get(i int) (int32, error)
	Set(i int, v int32) error
	Mark(i int) error
	MarkRange(start, end int) error
	Point(i int) error
}

type Algorithm func(arr Array) error

var algorithms = map[string]Algorithm{
	"bubble":    Bubble,
	"selection": Selection,
	"merge":     Merge,
}

func Lookup(name string) (Algorithm, error) {
	algorithm, ok := algorithms[name]
	if !ok {
		return nil, fmt.Errorf("unknown algorithm %q (have %v)", name, Names())
	}
	return algorithm, nil
}

func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bubble repeats passes of adjacent swaps until a pass swaps nothing.
func Bubble(arr Array) error {
	for {
		outOfOrder := false
		for i := 0; i < arr.Len()-1; i++ {
			left, err := arr.Get(i)
			if err != nil {
				return err
			}
			right, err := arr.Get(i + 1)
			if err != nil {
				return err
			}

			if right < left {
				if err := arr.Set(i+1, left); err != nil {
					return err
				}
				if err := arr.Set(i, right); err != nil {
					return err
				}
				outOfOrder = true
			}
		}
		if !outOfOrder {
			return nil
		}
	}
}

func Selection(arr Array) error {
	for i := 0; i < arr.Len(); i++ {
		minVal := int32(math.MaxInt32)
		minIndex := i
		for o := i; o < arr.Len(); o++ {
			if err := arr.Point(o); err != nil {
				return err
			}
			v, err := arr.Get(o)
			if err != nil {
				return err
			}
			if v < minVal {
				minVal = v
				minIndex = o
				if err := arr.Mark(o); err != nil {
					return err
				}
			}
		}

		current, err := arr.Get(i)
		if err != nil {
			return err
		}
		if err := arr.Set(i, minVal); err != nil {
			return err
		}
		if err := arr.Set(minIndex, current); err != nil {
			return err
		}
	}
	return nil
}

func Merge(arr Array) error {
	return mergeRange(arr, 0, arr.Len())
}

func mergeRange(arr Array, start, end int) error {
	if end-start <= 1 {
		return nil
	}

	mid := start + (end-start)/2
	if err := mergeRange(arr, start, mid); err != nil {
		return err
	}
	if err := mergeRange(arr, mid, end); err != nil {
		return err
	}

	if err := arr.MarkRange(start, end); err != nil {
		return err
	}

	merged := make([]int32, 0, end-start)
	left, right := start, mid
	for left < mid || right < end {
		takeLeft := right >= end
		if !takeLeft && left < mid {
			l, err := arr.Get(left)
			if err != nil {
				return err
			}
			r, err := arr.Get(right)
			if err != nil {
				return err
			}
			takeLeft = l <= r
		}

		idx := right
		if takeLeft {
			idx = left
			left++
		} else {
			right++
		}
		v, err := arr.Get(idx)
		if err != nil {
			return err
		}
		merged = append(merged, v)
	}

	for i, v := range merged {
		if err := arr.Set(start+i, v); err != nil {
			return err
		}
	}
	return nil
}
