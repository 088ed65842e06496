package rs

import (
	"fmt"
	"net/url"
	"strings"
)

// CreateUserRequest is the input to UserRegistry.Create.
type CreateUserRequest struct {
	Username   string
	FirstName  string
	MiddleName string
	LastName   string
}

// Validate checks that the username is present and usable as a directory name.
func (r CreateUserRequest) Validate() error {
	return validateSegment("username", strings.TrimSpace(r.Username))
}

// CaseRequest carries the editable fields of a case for Create and Update.
type CaseRequest struct {
	CaseNo      string
	CaseName    string
	Year        string
	Court       string
	Result      string
	Description string
}

// Validate checks that name and year are present and that the resulting key
// is usable as a directory name.
func (r CaseRequest) Validate() error {
	if strings.TrimSpace(r.CaseName) == "" {
		return fmt.Errorf("%w: case name is required", ErrInvalid)
	}
	if strings.TrimSpace(r.Year) == "" {
		return fmt.Errorf("%w: year is required", ErrInvalid)
	}
	return validateSegment("case key", CaseKey(r.CaseName, r.Year))
}

// Key returns the case key this request maps to.
func (r CaseRequest) Key() string {
	return CaseKey(r.CaseName, r.Year)
}

// RequestFromCase returns a CaseRequest holding c's current fields, for
// callers that change only some of them.
func RequestFromCase(c *Case) CaseRequest {
	return CaseRequest{
		CaseNo:      c.CaseNo,
		CaseName:    c.CaseName,
		Year:        c.Year,
		Court:       c.Court,
		Result:      c.Result,
		Description: c.Description,
	}
}

// LinkRequest is the input to LinkStore.Add.
type LinkRequest struct {
	Title    string
	URL      string
	Platform string
}

// Validate checks that the URL is usable, see CheckURL.
func (r LinkRequest) Validate() error {
	return CheckURL(r.URL)
}

// linkSchemes are the URL schemes a link may use.
var linkSchemes = map[string]bool{"http": true, "https": true, "file": true}

// CheckURL rejects URLs that are empty, unparsable, or not http, https or
// file. Links are handed to the platform opener as an argument, so anything
// else is refused.
func CheckURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: url is required", ErrInvalid)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: bad url %q: %v", ErrInvalid, raw, err)
	}
	if !linkSchemes[strings.ToLower(u.Scheme)] {
		return fmt.Errorf("%w: url %q must start with http://, https:// or file://", ErrInvalid, raw)
	}
	if u.Scheme != "file" && u.Host == "" {
		return fmt.Errorf("%w: url %q has no host", ErrInvalid, raw)
	}
	return nil
}

// validateSegment rejects names that cannot be used as a single path element.
func validateSegment(kind, name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: %s is required", ErrInvalid, kind)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %s %q is not allowed", ErrInvalid, kind, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %s %q must not contain path separators", ErrInvalid, kind, name)
	}
	return nil
}
