package encoder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// ErrNoData is returned when fitting has nothing to learn from.
var ErrNoData = errors.New("no data to fit")

// Fit learns standardisation statistics and vocabularies from rows. Means and
// population standard deviations are computed over non-missing values only.
func Fit(s schema.Schema, rows []schema.Row) (Params, error) {
	if err := s.Validate(); err != nil {
		return Params{}, err
	}
	if len(rows) == 0 {
		return Params{}, ErrNoData
	}

	var p Params
	for _, f := range s.OfKind(schema.KindNumeric) {
		values := make(stats.Float64Data, 0, len(rows))
		for i, row := range rows {
			v, ok, err := row.Number(f.Name)
			if err != nil {
				return Params{}, fmt.Errorf("row %d: %w", i, err)
			}
			if !ok {
				if !f.Nullable {
					return Params{}, fmt.Errorf("row %d: %w: %s", i, schema.ErrMissingField, f.Name)
				}
				continue
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return Params{}, fmt.Errorf("%w: field %s has no values", ErrNoData, f.Name)
		}

		mean, err := stats.Mean(values)
		if err != nil {
			return Params{}, fmt.Errorf("mean of %s: %w", f.Name, err)
		}
		std, err := stats.StandardDeviationPopulation(values)
		if err != nil {
			return Params{}, fmt.Errorf("std of %s: %w", f.Name, err)
		}
		p.Numeric = append(p.Numeric, NumericParams{Name: f.Name, Mean: mean, Std: std})
	}

	for _, f := range s.OfKind(schema.KindCategorical) {
		seen := make(map[string]struct{})
		for i, row := range rows {
			v, err := row.Text(f.Name)
			if err != nil {
				return Params{}, fmt.Errorf("row %d: %w", i, err)
			}
			seen[v] = struct{}{}
		}
		vocab := make([]string, 0, len(seen))
		for v := range seen {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		p.Categorical = append(p.Categorical, CategoricalParams{Name: f.Name, Vocabulary: vocab})
	}

	for _, f := range s.OfKind(schema.KindPassthrough) {
		p.Passthrough = append(p.Passthrough, f.Name)
	}

	return p, nil
}
