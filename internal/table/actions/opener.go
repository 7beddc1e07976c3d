package actions

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener opens a URL in a new browser window.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error {
	return f(url)
}

// SystemOpener hands URLs to the desktop URL handler.
type SystemOpener struct {
	// Command overrides the platform default, e.g. "firefox".
	Command string
}

func (o SystemOpener) Open(url string) error {
	name, args := o.command()
	cmd := exec.Command(name, append(args, url)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (o SystemOpener) command() (string, []string) {
	if o.Command != "" {
		return o.Command, nil
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}
