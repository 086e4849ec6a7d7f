// Package weights persists searched weight vectors together with the
// topology needed to split them back into W1 and W2.
package weights

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aristath/thalia/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// File is the on-disk form of a weight vector
type File struct {
	Topology  domain.Topology     `json:"topology" msgpack:"topology"`
	Weights   domain.WeightVector `json:"weights" msgpack:"weights"`
	Loss      float64             `json:"loss" msgpack:"loss"`
	Omega     float64             `json:"omega" msgpack:"omega"`
	RunID     string              `json:"run_id,omitempty" msgpack:"run_id,omitempty"`
	CreatedAt time.Time           `json:"created_at" msgpack:"created_at"`
}

// MarshalJSON writes a non-finite loss (every candidate failed) as null
func (f File) MarshalJSON() ([]byte, error) {
	type plain File
	out := struct {
		plain
		Loss *float64 `json:"loss"`
	}{plain: plain(f)}
	if !math.IsNaN(f.Loss) && !math.IsInf(f.Loss, 0) {
		out.Loss = &f.Loss
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null or missing loss back as +Inf
func (f *File) UnmarshalJSON(data []byte) error {
	type plain File
	in := struct {
		*plain
		Loss *float64 `json:"loss"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f.Loss = math.Inf(1)
	if in.Loss != nil {
		f.Loss = *in.Loss
	}
	return nil
}

// Validate checks the vector length against the topology
func (f *File) Validate() error {
	_, _, err := f.Topology.Split(f.Weights)
	return err
}

// Format is a serialization format
type Format string

const (
	FormatMsgpack Format = "msgpack"
	FormatJSON    Format = "json"
)

// FormatFor picks the format from the file extension; unknown extensions use msgpack
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatMsgpack
	}
}

// Marshal encodes a validated file
func Marshal(f *File, format Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatMsgpack:
		return msgpack.Marshal(f)
	default:
		return nil, fmt.Errorf("unknown weight format %q", format)
	}
}

// Unmarshal decodes and validates a file
func Unmarshal(data []byte, format Format) (*File, error) {
	var f File
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unknown weight format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("stored weights do not match their topology: %w", err)
	}
	return &f, nil
}

// Save writes f to path, creating parent directories
func Save(path string, f *File) error {
	data, err := Marshal(f, FormatFor(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create weights directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move weights into place: %w", err)
	}
	return nil
}

// Load reads a weight file written by Save
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights: %w", err)
	}
	return Unmarshal(data, FormatFor(path))
}
