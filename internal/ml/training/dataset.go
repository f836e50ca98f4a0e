package training

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/strokeguard/strokeguard/internal/domain/model"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// LabelColumn is the dataset column holding the 0/1 stroke outcome.
const LabelColumn = "stroke"

// ErrInvalidDataset is returned for any dataset that cannot be used for training.
var ErrInvalidDataset = errors.New("invalid dataset")

// csvRecord binds dataset columns by lower-cased header name. Values stay text so
// parse failures can be reported with their row number.
type csvRecord struct {
	Gender          string `csv:"gender"`
	Age             string `csv:"age"`
	Hypertension    string `csv:"hypertension"`
	HeartDisease    string `csv:"heart_disease"`
	EverMarried     string `csv:"ever_married"`
	WorkType        string `csv:"work_type"`
	ResidenceType   string `csv:"residence_type"`
	AvgGlucoseLevel string `csv:"avg_glucose_level"`
	BMI             string `csv:"bmi"`
	SmokingStatus   string `csv:"smoking_status"`
	Stroke          string `csv:"stroke"`
}

// Dataset is a fully parsed, labelled training set.
type Dataset struct {
	Path    string
	SHA256  string
	Records []model.PatientRecord
	Labels  []int
}

// Rows converts the records into pipeline rows.
func (d *Dataset) Rows() []schema.Row {
	rows := make([]schema.Row, len(d.Records))
	for i, r := range d.Records {
		rows[i] = r.Row()
	}
	return rows
}

// ClassCounts returns the number of records labelled 0 and 1.
func (d *Dataset) ClassCounts() [2]int {
	var counts [2]int
	for _, l := range d.Labels {
		counts[l]++
	}
	return counts
}

// LoadDataset reads a labelled CSV file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	d, err := ReadDataset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// ReadDataset parses a labelled CSV stream. Header names are matched
// case-insensitively and unknown columns such as id are ignored. Any missing column,
// malformed value or label outside {0, 1} fails the whole load.
func ReadDataset(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	sum := sha256.Sum256(data)

	reader := &headerNormalizer{r: csv.NewReader(bytes.NewReader(data))}
	var records []csvRecord
	if err := gocsv.UnmarshalCSV(reader, &records); err != nil {
		if reader.err != nil {
			return nil, reader.err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidDataset)
	}

	d := &Dataset{
		Records: make([]model.PatientRecord, 0, len(records)),
		Labels:  make([]int, 0, len(records)),
	}
	for i, rec := range records {
		// header is line 1
		line := i + 2
		patient, label, err := rec.parse()
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidDataset, line, err)
		}
		d.Records = append(d.Records, patient)
		d.Labels = append(d.Labels, label)
	}
	d.SHA256 = hex.EncodeToString(sum[:])
	return d, nil
}

func (c csvRecord) parse() (model.PatientRecord, int, error) {
	age, err := parseFloat(schema.FieldAge, c.Age)
	if err != nil {
		return model.PatientRecord{}, 0, err
	}
	glucose, err := parseFloat(schema.FieldAvgGlucoseLevel, c.AvgGlucoseLevel)
	if err != nil {
		return model.PatientRecord{}, 0, err
	}
	hypertension, err := parseBinary(schema.FieldHypertension, c.Hypertension)
	if err != nil {
		return model.PatientRecord{}, 0, err
	}
	heart, err := parseBinary(schema.FieldHeartDisease, c.HeartDisease)
	if err != nil {
		return model.PatientRecord{}, 0, err
	}
	label, err := parseBinary(LabelColumn, c.Stroke)
	if err != nil {
		return model.PatientRecord{}, 0, err
	}

	var bmi *float64
	if v := strings.TrimSpace(c.BMI); v != "" && !strings.EqualFold(v, "N/A") {
		b, err := parseFloat(schema.FieldBMI, v)
		if err != nil {
			return model.PatientRecord{}, 0, err
		}
		bmi = &b
	}

	record := model.PatientRecord{
		Age:             age,
		Hypertension:    hypertension,
		HeartDisease:    heart,
		EverMarried:     strings.TrimSpace(c.EverMarried),
		WorkType:        strings.TrimSpace(c.WorkType),
		ResidenceType:   strings.TrimSpace(c.ResidenceType),
		AvgGlucoseLevel: glucose,
		BMI:             bmi,
		SmokingStatus:   strings.TrimSpace(c.SmokingStatus),
		Gender:          strings.TrimSpace(c.Gender),
	}
	if err := record.Validate(); err != nil {
		return model.PatientRecord{}, 0, err
	}
	return record, label, nil
}

func parseFloat(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: cannot parse %q as a number", name, raw)
	}
	return v, nil
}

func parseBinary(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || (v != 0 && v != 1) {
		return 0, fmt.Errorf("%s: expected 0 or 1, got %q", name, raw)
	}
	return v, nil
}

// requiredColumns are the lower-cased headers every dataset must carry.
var requiredColumns = []string{
	schema.FieldGender, schema.FieldAge, schema.FieldHypertension, schema.FieldHeartDisease,
	schema.FieldEverMarried, schema.FieldWorkType, schema.FieldResidenceType,
	schema.FieldAvgGlucoseLevel, schema.FieldBMI, schema.FieldSmokingStatus, LabelColumn,
}

// headerNormalizer lower-cases the header row and rejects datasets missing a
// required column before gocsv binds anything.
type headerNormalizer struct {
	r          gocsv.CSVReader
	headerDone bool
	err        error
}

func (h *headerNormalizer) Read() ([]string, error) {
	rec, err := h.r.Read()
	if err != nil || h.headerDone {
		return rec, err
	}
	h.headerDone = true

	present := make(map[string]struct{}, len(rec))
	for i, name := range rec {
		rec[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		present[rec[i]] = struct{}{}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		h.err = fmt.Errorf("%w: missing columns %s", ErrInvalidDataset, strings.Join(missing, ", "))
		return nil, h.err
	}
	return rec, nil
}

func (h *headerNormalizer) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := h.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
