package training

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions sample indices into train and test sets so each class
// keeps its proportion. Each class contributes round(n_class * testRatio) samples to
// the test set, chosen by a seeded shuffle; both sets are returned in ascending order.
func StratifiedSplit(labels []int, testRatio float64, seed int64) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0, 1), got %v", testRatio)
	}

	byClass := map[int][]int{}
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		n := int(math.Round(float64(len(idx)) * testRatio))
		if n == len(idx) && n > 1 {
			n--
		}
		test = append(test, idx[:n]...)
		train = append(train, idx[n:]...)
	}

	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("%w: %d samples cannot be split with test ratio %v",
			ErrInvalidDataset, len(labels), testRatio)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
