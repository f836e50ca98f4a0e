// Package schema describes the named-field contract between raw patient rows and the
// fitted stroke pipeline. Rows are resolved by field name, never by position.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSchemaMismatch is returned when a row or artifact does not carry exactly the fitted fields.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrMissingField is returned when a required value is absent or null.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField is returned when a value has the wrong type or is not finite.
	ErrInvalidField = errors.New("invalid field")
)

// Field names used by the dataset, the artifact and the wire formats.
const (
	FieldAge             = "age"
	FieldHypertension    = "hypertension"
	FieldHeartDisease    = "heart_disease"
	FieldEverMarried     = "ever_married"
	FieldWorkType        = "work_type"
	FieldResidenceType   = "residence_type"
	FieldAvgGlucoseLevel = "avg_glucose_level"
	FieldBMI             = "bmi"
	FieldSmokingStatus   = "smoking_status"
	FieldGender          = "gender"
)

// Kind is the encoding treatment a field receives.
type Kind int

const (
	KindNumeric Kind = iota + 1
	KindCategorical
	KindPassthrough
)

// String returns the string representation.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindNumeric, KindCategorical, KindPassthrough:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown field kind %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = KindNumeric
	case "categorical":
		*k = KindCategorical
	case "passthrough":
		*k = KindPassthrough
	default:
		return fmt.Errorf("unknown field kind %q", string(b))
	}
	return nil
}

// Field is one named column of the contract.
type Field struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Nullable bool   `json:"nullable,omitempty"`
}

// Schema is the ordered field contract. Within a kind, field order defines the
// order of the encoded columns.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Stroke returns the canonical stroke-risk schema.
func Stroke() Schema {
	return Schema{Fields: []Field{
		{Name: FieldAge, Kind: KindNumeric},
		{Name: FieldAvgGlucoseLevel, Kind: KindNumeric},
		{Name: FieldBMI, Kind: KindNumeric, Nullable: true},
		{Name: FieldEverMarried, Kind: KindCategorical},
		{Name: FieldSmokingStatus, Kind: KindCategorical},
		{Name: FieldGender, Kind: KindCategorical},
		{Name: FieldWorkType, Kind: KindCategorical},
		{Name: FieldResidenceType, Kind: KindCategorical},
		{Name: FieldHypertension, Kind: KindPassthrough},
		{Name: FieldHeartDisease, Kind: KindPassthrough},
	}}
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// OfKind returns the fields of the given kind in schema order.
func (s Schema) OfKind(kind Kind) []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks that the schema is non-empty, names are unique and kinds are known.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: schema has no fields", ErrSchemaMismatch)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: empty field name", ErrSchemaMismatch)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrSchemaMismatch, f.Name)
		}
		seen[f.Name] = struct{}{}
		if _, err := f.Kind.MarshalText(); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrSchemaMismatch, f.Name, err)
		}
		if f.Nullable && f.Kind != KindNumeric {
			return fmt.Errorf("%w: only numeric fields may be nullable, got %q", ErrSchemaMismatch, f.Name)
		}
	}
	return nil
}

// Equal reports whether both schemas carry the same fields, kinds and order.
func (s Schema) Equal(other Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// CheckRow rejects rows carrying keys the schema does not know and rows missing a key
// the schema requires. A present key holding nil is left to the encoder.
func (s Schema) CheckRow(row Row) error {
	var unknown []string
	for key := range row {
		if _, ok := s.Field(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown fields %s", ErrSchemaMismatch, strings.Join(unknown, ", "))
	}

	var missing []string
	for _, f := range s.Fields {
		if _, ok := row[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
