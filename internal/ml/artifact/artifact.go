// Package artifact persists a fitted pipeline as a single snappy-framed JSON document
// and loads it back as a validated, immutable pipeline handle.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/snappy"

	"github.com/strokeguard/strokeguard/internal/ml/encoder"
	"github.com/strokeguard/strokeguard/internal/ml/forest"
	"github.com/strokeguard/strokeguard/internal/ml/pipeline"
	"github.com/strokeguard/strokeguard/internal/ml/schema"
)

// Format identifies the document layout.
const Format = "strokeguard.pipeline/v1"

var (
	// ErrUnknownFormat is returned for documents that are not pipeline artifacts.
	ErrUnknownFormat = errors.New("unknown artifact format")
	// ErrUnsupportedClassifier is returned when a pipeline's classifier cannot be persisted.
	ErrUnsupportedClassifier = errors.New("unsupported classifier")
)

// Metadata records how and on what the pipeline was trained.
type Metadata struct {
	TrainedAt          time.Time     `json:"trained_at"`
	DatasetPath        string        `json:"dataset_path"`
	DatasetSHA256      string        `json:"dataset_sha256"`
	TrainSize          int           `json:"train_size"`
	TestSize           int           `json:"test_size"`
	ClassCounts        [2]int        `json:"class_counts"`
	Accuracy           float64       `json:"accuracy"`
	ConfusionMatrix    [2][2]int     `json:"confusion_matrix"`
	Forest             forest.Config `json:"forest"`
	FeatureNames       []string      `json:"feature_names"`
	FeatureImportances []float64     `json:"feature_importances"`
}

type document struct {
	Format   string         `json:"format"`
	Schema   schema.Schema  `json:"schema"`
	Encoder  encoder.Params `json:"encoder"`
	Forest   *forest.Forest `json:"forest"`
	Metadata Metadata       `json:"metadata"`
}

// Artifact is a loaded, validated pipeline with its provenance.
type Artifact struct {
	// ID is the hex SHA-256 of the compressed document.
	ID       string
	Metadata Metadata
	Pipeline *pipeline.Pipeline
	Forest   *forest.Forest
}

// Encode writes p and meta to w as a snappy-framed JSON document.
func Encode(w io.Writer, p *pipeline.Pipeline, meta Metadata) error {
	f, ok := p.Classifier().(*forest.Forest)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedClassifier, p.Classifier())
	}

	doc := document{
		Format:   Format,
		Schema:   p.Schema(),
		Encoder:  p.Encoder(),
		Forest:   f,
		Metadata: meta,
	}

	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(doc); err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("flushing artifact: %w", err)
	}
	return nil
}

// Marshal returns the compressed document and its ID.
func Marshal(p *pipeline.Pipeline, meta Metadata) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p, meta); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), digest(buf.Bytes()), nil
}

// Unmarshal decodes a compressed document and validates it against expected.
func Unmarshal(data []byte, expected schema.Schema) (*Artifact, error) {
	var doc document
	dec := json.NewDecoder(snappy.NewReader(bytes.NewReader(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}

	if doc.Format != Format {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, doc.Format)
	}
	if !doc.Schema.Equal(expected) {
		return nil, fmt.Errorf("%w: artifact fields %v, expected %v",
			schema.ErrSchemaMismatch, doc.Schema.Names(), expected.Names())
	}
	if err := doc.Forest.Validate(); err != nil {
		return nil, err
	}

	p, err := pipeline.New(doc.Schema, doc.Encoder, doc.Forest)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		ID:       digest(data),
		Metadata: doc.Metadata,
		Pipeline: p,
		Forest:   doc.Forest,
	}, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
