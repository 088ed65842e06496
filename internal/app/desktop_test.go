package app

import (
	"errors"
	"reflect"
	"testing"
)

func TestOSDesktop(t *testing.T) {
	tests := []struct {
		goos       string
		wantReveal []string
		wantURL    []string
	}{
		{goos: "linux", wantReveal: []string{"xdg-open", "/cases/A"}, wantURL: []string{"xdg-open", "https://x"}},
		{goos: "darwin", wantReveal: []string{"open", "/cases/A"}, wantURL: []string{"open", "https://x"}},
		{goos: "windows", wantReveal: []string{"explorer", "/cases/A"}, wantURL: []string{"rundll32", "url.dll,FileProtocolHandler", "https://x"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			var got [][]string
			d := &OSDesktop{goos: tt.goos, run: func(name string, args ...string) error {
				got = append(got, append([]string{name}, args...))
				return nil
			}}

			if err := d.Reveal("/cases/A"); err != nil {
				t.Fatalf("Reveal() error = %v", err)
			}
			if err := d.OpenURL("https://x"); err != nil {
				t.Fatalf("OpenURL() error = %v", err)
			}
			if !reflect.DeepEqual(got, [][]string{tt.wantReveal, tt.wantURL}) {
				t.Errorf("commands = %v, want %v and %v", got, tt.wantReveal, tt.wantURL)
			}
		})
	}
}

func TestOSDesktop_RunError(t *testing.T) {
	boom := errors.New("not found")
	d := &OSDesktop{goos: "linux", run: func(string, ...string) error { return boom }}

	if err := d.Reveal("/x"); !errors.Is(err, boom) {
		t.Errorf("Reveal() error = %v, want wrapped run error", err)
	}
	if err := d.OpenURL("https://x"); !errors.Is(err, boom) {
		t.Errorf("OpenURL() error = %v, want wrapped run error", err)
	}
}
