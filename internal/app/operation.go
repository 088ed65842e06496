package app

import (
	"encoding/json"

	"rulingsafe/internal/rs"
)

// Operation tracks a facade call that mutates state. It lives in memory
// with ID=0 until the journal records it.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Status     string
}

// NewOperation creates an in-memory operation. kv holds parameter
// name/value pairs; a trailing name without a value is dropped.
func NewOperation(name string, kv ...string) *Operation {
	return &Operation{
		Name:       name,
		Parameters: encodeParams(kv),
		Status:     rs.StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the journal.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// encodeParams renders kv pairs as a JSON object with sorted keys.
func encodeParams(kv []string) string {
	if len(kv) < 2 {
		return ""
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}
