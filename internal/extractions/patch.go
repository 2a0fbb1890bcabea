package extractions

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an absent field from an explicit null and from a
// value. Set is true whenever the key was present in the input.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked for keys that are present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Patch is a partial update of an extraction. Version and DocumentID are
// listed so that attempts to change them can be rejected rather than
// silently dropped.
type Patch struct {
	ExtractedData  Optional[json.RawMessage] `json:"extractedData"`
	SourceFileName Optional[string]          `json:"sourceFileName"`
	Version        Optional[int]             `json:"version"`
	DocumentID     Optional[string]          `json:"documentId"`
}

// changes validates the patch and reduces it to the mutable fields.
func (p Patch) changes() (Changes, error) {
	if p.Version.Set {
		return Changes{}, &ValidationError{Field: "version", Reason: "version is immutable"}
	}
	if p.DocumentID.Set {
		return Changes{}, &ValidationError{Field: "documentId", Reason: "documentId is immutable"}
	}

	var out Changes
	if p.ExtractedData.Set {
		if p.ExtractedData.Null {
			return Changes{}, &ValidationError{Field: "extractedData", Reason: "extractedData cannot be null"}
		}
		data := p.ExtractedData.Value
		if !json.Valid(data) {
			return Changes{}, &ValidationError{Field: "extractedData", Reason: "extractedData must be valid JSON"}
		}
		out.ExtractedData = &data
	}
	if p.SourceFileName.Set {
		name := p.SourceFileName.Value
		out.SourceFileName = &name
	}
	return out, nil
}
