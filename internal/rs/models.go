package rs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Config is the installation state file: storage root, registered users,
// active user and UI preferences.
type Config struct {
	BasePath          string
	ActiveUser        string
	Users             []User
	FramelessTitlebar bool
	Preferences       map[string]string
}

// configJSON is the on-disk shape of Config. Unset strings are written as null.
type configJSON struct {
	BasePath          *string           `json:"base_path"`
	ActiveUser        *string           `json:"active_user"`
	Users             []User            `json:"users"`
	FramelessTitlebar bool              `json:"frameless_titlebar"`
	Preferences       map[string]string `json:"preferences,omitempty"`
}

func (c Config) MarshalJSON() ([]byte, error) {
	users := c.Users
	if users == nil {
		users = []User{}
	}
	return json.Marshal(configJSON{
		BasePath:          nullable(c.BasePath),
		ActiveUser:        nullable(c.ActiveUser),
		Users:             users,
		FramelessTitlebar: c.FramelessTitlebar,
		Preferences:       c.Preferences,
	})
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Config{
		Users:             raw.Users,
		FramelessTitlebar: raw.FramelessTitlebar,
		Preferences:       raw.Preferences,
	}
	if raw.BasePath != nil {
		c.BasePath = *raw.BasePath
	}
	if raw.ActiveUser != nil {
		c.ActiveUser = *raw.ActiveUser
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// User is a registered person. Username doubles as the directory name.
type User struct {
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  Timestamp `json:"created_at"`
}

// FullName joins the non-empty name parts.
func (u User) FullName() string {
	var parts []string
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Case is one legal case of a user. Key is both its identity and the name
// of its folder under cases/.
type Case struct {
	Key         string    `json:"key"`
	CaseNo      string    `json:"case_no"`
	CaseName    string    `json:"case_name"`
	Year        string    `json:"year"`
	Court       string    `json:"court"`
	Result      string    `json:"result"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"created_at"`
	LastUpdated Timestamp `json:"last_updated"`
}

// CaseKey derives the case key from its name and year.
func CaseKey(name, year string) string {
	return strings.TrimSpace(name) + "_" + strings.TrimSpace(year)
}

// Link is an external reference attached to one case folder.
type Link struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	CreatedAt Timestamp `json:"created_at"`
}

// Document describes a file in a case's documents folder.
// Documents carry no metadata of their own; this is a directory listing.
type Document struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// legacyLayouts are the naive local-time layouts written by earlier versions,
// both ISO and the space-separated form.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Timestamp is a time.Time that reads both RFC 3339 and the naive ISO
// layout older files contain. It is written as RFC 3339.
//
// A string in no known layout decodes as the zero time and is kept in
// Unrecognized, so the record survives and the value is written back as found.
type Timestamp struct {
	time.Time
	Unrecognized string
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		if t.Unrecognized != "" {
			return json.Marshal(t.Unrecognized)
		}
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range legacyLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Unrecognized = s
	return nil
}

// unrecognizedTimestamps lists the timestamp strings of a record that could not be parsed.
func unrecognizedTimestamps(ts ...Timestamp) []string {
	var bad []string
	for _, t := range ts {
		if t.Unrecognized != "" {
			bad = append(bad, t.Unrecognized)
		}
	}
	return bad
}

func (u *User) badTimestamps() []string { return unrecognizedTimestamps(u.CreatedAt) }
func (c *Case) badTimestamps() []string { return unrecognizedTimestamps(c.CreatedAt, c.LastUpdated) }
func (l *Link) badTimestamps() []string { return unrecognizedTimestamps(l.CreatedAt) }
