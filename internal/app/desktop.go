package app

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Desktop hands paths and URLs to the user's desktop environment.
type Desktop interface {
	// Reveal opens path in the file manager.
	Reveal(path string) error
	// OpenURL opens url in the default browser.
	OpenURL(url string) error
}

// OSDesktop implements Desktop with the platform's opener command.
type OSDesktop struct {
	goos string
	run  func(name string, args ...string) error
}

var _ Desktop = (*OSDesktop)(nil)

// NewOSDesktop creates a Desktop for the running platform.
func NewOSDesktop() *OSDesktop {
	return &OSDesktop{goos: runtime.GOOS, run: startDetached}
}

func (d *OSDesktop) Reveal(path string) error {
	name := "xdg-open"
	switch d.goos {
	case "darwin":
		name = "open"
	case "windows":
		name = "explorer"
	}
	if err := d.run(name, path); err != nil {
		return fmt.Errorf("revealing %s: %w", path, err)
	}
	return nil
}

func (d *OSDesktop) OpenURL(url string) error {
	var err error
	switch d.goos {
	case "darwin":
		err = d.run("open", url)
	case "windows":
		err = d.run("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		err = d.run("xdg-open", url)
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	return nil
}

// startDetached starts the command without waiting for the opened window.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
