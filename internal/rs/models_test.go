package rs_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"rulingsafe/internal/rs"
)

func TestCaseKey(t *testing.T) {
	tests := []struct {
		name, year, want string
	}{
		{"Smith v Jones", "2021", "Smith v Jones_2021"},
		{"  Smith v Jones ", " 2021 ", "Smith v Jones_2021"},
		{"State", "2019", "State_2019"},
	}
	for _, tt := range tests {
		if got := rs.CaseKey(tt.name, tt.year); got != tt.want {
			t.Errorf("CaseKey(%q, %q) = %q, want %q", tt.name, tt.year, got, tt.want)
		}
	}
}

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		zero  bool
	}{
		{
			name:  "rfc3339",
			input: `"2024-01-15T10:30:00Z"`,
			want:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 with offset and fraction",
			input: `"2024-01-15T10:30:00.5+02:00"`,
			want:  time.Date(2024, 1, 15, 8, 30, 0, 500000000, time.UTC),
		},
		{
			name:  "legacy naive with microseconds",
			input: `"2024-01-15T10:30:00.123456"`,
			want:  time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.Local),
		},
		{
			name:  "legacy naive without fraction",
			input: `"2024-01-15T10:30:00"`,
			want:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local),
		},
		{
			name:  "space separated with microseconds",
			input: `"2024-01-15 10:30:00.123456"`,
			want:  time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.Local),
		},
		{
			name:  "space separated",
			input: `"2024-01-15 10:30:00"`,
			want:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local),
		},
		{name: "null", input: `null`, zero: true},
		{name: "empty string", input: `""`, zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts rs.Timestamp
			if err := json.Unmarshal([]byte(tt.input), &ts); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if tt.zero {
				if !ts.IsZero() {
					t.Errorf("got %v, want zero", ts.Time)
				}
				return
			}
			if !ts.Equal(tt.want) {
				t.Errorf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}

	t.Run("unknown layout is kept", func(t *testing.T) {
		var ts rs.Timestamp
		if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !ts.IsZero() || ts.Unrecognized != "yesterday" {
			t.Errorf("got %v / %q, want zero time keeping the raw value", ts.Time, ts.Unrecognized)
		}
		data, err := json.Marshal(ts)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `"yesterday"` {
			t.Errorf("Marshal() = %s, want the original string", data)
		}
	})
}

func TestTimestamp_MarshalRFC3339(t *testing.T) {
	ts := rs.NewTimestamp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2024-01-15T10:30:00Z"` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestConfig_JSONShape(t *testing.T) {
	t.Run("unset fields are null", func(t *testing.T) {
		data, err := json.Marshal(rs.Config{})
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		want := `{"base_path":null,"active_user":null,"users":[],"frameless_titlebar":false}`
		if string(data) != want {
			t.Errorf("Marshal() = %s, want %s", data, want)
		}
	})

	t.Run("reads documented shape", func(t *testing.T) {
		input := `{
			"base_path": "/data/RulingSafe",
			"active_user": "alice",
			"users": [{"username": "alice", "first_name": "Alice", "middle_name": "", "last_name": "Ng", "created_at": "2024-01-15T10:30:00.000001"}],
			"frameless_titlebar": true
		}`
		var cfg rs.Config
		if err := json.Unmarshal([]byte(input), &cfg); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if cfg.BasePath != "/data/RulingSafe" || cfg.ActiveUser != "alice" || !cfg.FramelessTitlebar {
			t.Errorf("cfg = %+v", cfg)
		}
		if len(cfg.Users) != 1 || cfg.Users[0].FullName() != "Alice Ng" {
			t.Errorf("users = %+v", cfg.Users)
		}
	})
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"case ok", rs.CaseRequest{CaseName: "A", Year: "2020"}.Validate(), false},
		{"case missing name", rs.CaseRequest{CaseName: " ", Year: "2020"}.Validate(), true},
		{"case missing year", rs.CaseRequest{CaseName: "A"}.Validate(), true},
		{"case name with slash", rs.CaseRequest{CaseName: "A/B", Year: "2020"}.Validate(), true},
		{"user ok", rs.CreateUserRequest{Username: "alice"}.Validate(), false},
		{"user empty", rs.CreateUserRequest{Username: "  "}.Validate(), true},
		{"user dotdot", rs.CreateUserRequest{Username: ".."}.Validate(), true},
		{"user backslash", rs.CreateUserRequest{Username: `a\b`}.Validate(), true},
		{"link ok", rs.LinkRequest{URL: "https://example.com"}.Validate(), false},
		{"link no url", rs.LinkRequest{Title: "x"}.Validate(), true},
		{"link file url", rs.LinkRequest{URL: "file:///srv/judgments/a.pdf"}.Validate(), false},
		{"link dash url", rs.LinkRequest{URL: "-a"}.Validate(), true},
		{"link ftp url", rs.LinkRequest{URL: "ftp://example.com/x"}.Validate(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", tt.err, tt.wantErr)
			}
			if tt.err != nil && !strings.Contains(tt.err.Error(), "invalid input") {
				t.Errorf("error %q should wrap ErrInvalid", tt.err)
			}
		})
	}
}
