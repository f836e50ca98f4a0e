// Package encoder turns a named patient row into the fixed-width numeric vector the
// classifier consumes.
//
// Columns are laid out as standardised numeric fields, then one indicator block per
// categorical field in vocabulary order, then pass-through fields copied unchanged.
// A category absent from the fitted vocabulary encodes to an all-zero block.
package encoder

import (
	"fmt"

	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// NumericParams holds the standardisation statistics of one numeric field.
type NumericParams struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// CategoricalParams holds the sorted vocabulary observed for one categorical field.
type CategoricalParams struct {
	Name       string   `json:"name"`
	Vocabulary []string `json:"vocabulary"`
}

// Params is the immutable result of fitting the encoder.
type Params struct {
	Numeric     []NumericParams     `json:"numeric"`
	Categorical []CategoricalParams `json:"categorical"`
	Passthrough []string            `json:"passthrough"`
}

// Width returns the length of every vector produced by Encode.
func (p Params) Width() int {
	width := len(p.Numeric) + len(p.Passthrough)
	for _, c := range p.Categorical {
		width += len(c.Vocabulary)
	}
	return width
}

// FeatureNames names each encoded column, e.g. "smoking_status=smokes".
func (p Params) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	for _, n := range p.Numeric {
		names = append(names, n.Name)
	}
	for _, c := range p.Categorical {
		for _, v := range c.Vocabulary {
			names = append(names, c.Name+"="+v)
		}
	}
	names = append(names, p.Passthrough...)
	return names
}

// Encode encodes a row for inference. A missing numeric value is an error.
func (p Params) Encode(row schema.Row) ([]float64, error) {
	return p.encode(row, false)
}

// EncodeImputed encodes a training row. A missing numeric value takes the fitted
// mean, i.e. a standardised 0.
func (p Params) EncodeImputed(row schema.Row) ([]float64, error) {
	return p.encode(row, true)
}

func (p Params) encode(row schema.Row, impute bool) ([]float64, error) {
	out := make([]float64, 0, p.Width())

	for _, n := range p.Numeric {
		v, ok, err := row.Number(n.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			if !impute {
				return nil, fmt.Errorf("%w: %s", schema.ErrMissingField, n.Name)
			}
			out = append(out, 0)
			continue
		}
		out = append(out, n.standardise(v))
	}

	for _, c := range p.Categorical {
		v, err := row.Text(c.Name)
		if err != nil {
			return nil, err
		}
		start := len(out)
		out = append(out, make([]float64, len(c.Vocabulary))...)
		if i := c.index(v); i >= 0 {
			out[start+i] = 1
		}
	}

	for _, name := range p.Passthrough {
		v, ok, err := row.Number(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", schema.ErrMissingField, name)
		}
		out = append(out, v)
	}

	return out, nil
}

func (n NumericParams) standardise(v float64) float64 {
	if n.Std == 0 {
		return 0
	}
	return (v - n.Mean) / n.Std
}

// index returns the position of v in the vocabulary, or -1.
func (c CategoricalParams) index(v string) int {
	lo, hi := 0, len(c.Vocabulary)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if c.Vocabulary[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(c.Vocabulary) && c.Vocabulary[lo] == v {
		return lo
	}
	return -1
}

// Validate checks that the params cover exactly the fields of s with matching kinds
// and that every vocabulary is sorted and free of duplicates.
func (p Params) Validate(s schema.Schema) error {
	numeric := s.OfKind(schema.KindNumeric)
	categorical := s.OfKind(schema.KindCategorical)
	passthrough := s.OfKind(schema.KindPassthrough)

	if len(p.Numeric) != len(numeric) {
		return fmt.Errorf("%w: encoder has %d numeric fields, schema has %d",
			schema.ErrSchemaMismatch, len(p.Numeric), len(numeric))
	}
	for i, n := range p.Numeric {
		if n.Name != numeric[i].Name {
			return fmt.Errorf("%w: numeric field %d is %q, schema expects %q",
				schema.ErrSchemaMismatch, i, n.Name, numeric[i].Name)
		}
		if n.Std < 0 {
			return fmt.Errorf("%w: numeric field %q has negative std", schema.ErrInvalidField, n.Name)
		}
	}

	if len(p.Categorical) != len(categorical) {
		return fmt.Errorf("%w: encoder has %d categorical fields, schema has %d",
			schema.ErrSchemaMismatch, len(p.Categorical), len(categorical))
	}
	for i, c := range p.Categorical {
		if c.Name != categorical[i].Name {
			return fmt.Errorf("%w: categorical field %d is %q, schema expects %q",
				schema.ErrSchemaMismatch, i, c.Name, categorical[i].Name)
		}
		for j := 1; j < len(c.Vocabulary); j++ {
			if c.Vocabulary[j-1] >= c.Vocabulary[j] {
				return fmt.Errorf("%w: vocabulary of %q is not sorted and unique",
					schema.ErrInvalidField, c.Name)
			}
		}
	}

	if len(p.Passthrough) != len(passthrough) {
		return fmt.Errorf("%w: encoder has %d passthrough fields, schema has %d",
			schema.ErrSchemaMismatch, len(p.Passthrough), len(passthrough))
	}
	for i, name := range p.Passthrough {
		if name != passthrough[i].Name {
			return fmt.Errorf("%w: passthrough field %d is %q, schema expects %q",
				schema.ErrSchemaMismatch, i, name, passthrough[i].Name)
		}
	}
	return nil
}
