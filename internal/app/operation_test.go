package app

import (
	"testing"

	"rulingsafe/internal/rs"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		kv         []string
		parameters string
	}{
		{
			name:       "with parameters",
			operation:  "case.update",
			kv:         []string{"key", "A_2020", "new_key", "B_2021"},
			parameters: `{"key":"A_2020","new_key":"B_2021"}`,
		},
		{
			name:       "keys are sorted",
			operation:  "link.add",
			kv:         []string{"url", "https://x", "case", "A_2020"},
			parameters: `{"case":"A_2020","url":"https://x"}`,
		},
		{
			name:       "dangling name dropped",
			operation:  "user.create",
			kv:         []string{"username", "alice", "extra"},
			parameters: `{"username":"alice"}`,
		},
		{
			name:       "empty parameters",
			operation:  "user.logout",
			parameters: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.operation, tt.kv...)

			if op.Name != tt.operation {
				t.Errorf("Name = %q, want %q", op.Name, tt.operation)
			}
			if op.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.parameters)
			}
			if op.Status != rs.StatusSuccess {
				t.Errorf("Status = %q, want %q", op.Status, rs.StatusSuccess)
			}
			if op.Persisted() {
				t.Error("new operation reports Persisted")
			}
		})
	}
}

func TestOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &Operation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}
