// Package resample produces repeatable train/validation partitions for
// honest performance estimation: simple and stratified initial splits
// plus (stratified) k-fold cross validation. Given the same table and
// seed, every function returns the identical partition.
package resample

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"tablefit/domain/core"
	"tablefit/domain/table"
)

// Split is one train/holdout partition of row indices. Read-only once
// created; index slices are sorted so partitions preserve row order.
type Split struct {
	Train   []int
	Holdout []int
	Seed    int64
}

// Fold is one train/validation partition within a k-fold set
type Fold struct {
	Index      int
	Train      []int
	Validation []int
}

// InitialSplit partitions rows into train/holdout by proportion with a
// deterministic seed
func InitialSplit(t table.Table, proportion float64, seed int64) (Split, error) {
	n := t.NumRows()
	if proportion <= 0 || proportion >= 1 {
		return Split{}, fmt.Errorf("%w: proportion %v outside (0,1)", core.ErrBadSplit, proportion)
	}
	if n < 2 {
		return Split{}, fmt.Errorf("%w: need at least 2 rows, got %d", core.ErrBadSplit, n)
	}
	trainSize := int(math.Round(float64(n) * proportion))
	if trainSize == 0 {
		trainSize = 1
	}
	if trainSize == n {
		trainSize = n - 1
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	train := append([]int(nil), perm[:trainSize]...)
	holdout := append([]int(nil), perm[trainSize:]...)
	sort.Ints(train)
	sort.Ints(holdout)
	return Split{Train: train, Holdout: holdout, Seed: seed}, nil
}

// StratifiedInitialSplit partitions rows by proportion while keeping each
// stratum's share of the train partition close to its share of the source
func StratifiedInitialSplit(t table.Table, proportion float64, stratify string, seed int64) (Split, error) {
	if proportion <= 0 || proportion >= 1 {
		return Split{}, fmt.Errorf("%w: proportion %v outside (0,1)", core.ErrBadSplit, proportion)
	}
	groups, err := strata(t, stratify)
	if err != nil {
		return Split{}, err
	}

	rng := rand.New(rand.NewSource(seed))
	var train, holdout []int
	for _, level := range sortedKeys(groups) {
		rows := groups[level]
		take := int(math.Round(float64(len(rows)) * proportion))
		if take == 0 && len(rows) > 0 {
			take = 1
		}
		if take == len(rows) && len(rows) > 1 {
			take = len(rows) - 1
		}
		perm := rng.Perm(len(rows))
		for i, p := range perm {
			if i < take {
				train = append(train, rows[p])
			} else {
				holdout = append(holdout, rows[p])
			}
		}
	}
	sort.Ints(train)
	sort.Ints(holdout)
	return Split{Train: train, Holdout: holdout, Seed: seed}, nil
}

// VFold produces k disjoint validation folds whose union is the full row
// set; each fold's train partition is the complement of its validation
func VFold(t table.Table, k int, seed int64) ([]Fold, error) {
	n := t.NumRows()
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: k=%d for %d rows", core.ErrBadSplit, k, n)
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	buckets := make([][]int, k)
	for i, row := range perm {
		buckets[i%k] = append(buckets[i%k], row)
	}
	return foldsFromBuckets(buckets, n), nil
}

// StratifiedVFold produces k folds with each stratum spread evenly across
// the validation folds
func StratifiedVFold(t table.Table, k int, stratify string, seed int64) ([]Fold, error) {
	n := t.NumRows()
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: k=%d for %d rows", core.ErrBadSplit, k, n)
	}
	groups, err := strata(t, stratify)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))

	buckets := make([][]int, k)
	next := 0
	for _, level := range sortedKeys(groups) {
		rows := groups[level]
		perm := rng.Perm(len(rows))
		for _, p := range perm {
			buckets[next%k] = append(buckets[next%k], rows[p])
			next++
		}
	}
	return foldsFromBuckets(buckets, n), nil
}

func foldsFromBuckets(buckets [][]int, n int) []Fold {
	folds := make([]Fold, len(buckets))
	for i, validation := range buckets {
		inFold := make(map[int]bool, len(validation))
		for _, row := range validation {
			inFold[row] = true
		}
		var train []int
		for row := 0; row < n; row++ {
			if !inFold[row] {
				train = append(train, row)
			}
		}
		sorted := append([]int(nil), validation...)
		sort.Ints(sorted)
		folds[i] = Fold{Index: i, Train: train, Validation: sorted}
	}
	return folds
}

// strata groups row indices by the stratification column's level
func strata(t table.Table, column string) (map[string][]int, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]int)
	switch col.Kind {
	case table.Numeric:
		for i, v := range col.Floats {
			key := fmt.Sprintf("%v", v)
			groups[key] = append(groups[key], i)
		}
	case table.Datetime:
		return nil, fmt.Errorf("%w: cannot stratify on datetime column %q", core.ErrBadSplit, column)
	default:
		for i, v := range col.Strings {
			groups[v] = append(groups[v], i)
		}
	}
	return groups, nil
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
