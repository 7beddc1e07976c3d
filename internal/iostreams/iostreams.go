package iostreams

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var osStreams *IOStreams

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Empty type to represent the _type_ IOStreams . Genesis is to support a key in a Context
type Key struct{}

// StreamsKey is a global instance of the Key type
var StreamsKey = Key{}

type fdProvider interface {
	Fd() uintptr
}

// Get a singleton instance of the OS IOStreams
func GetOSIOStreams() *IOStreams {
	if osStreams == nil {
		osStreams = &IOStreams{
			In:     os.Stdin,
			Out:    os.Stdout,
			ErrOut: os.Stderr,
		}
	}
	return osStreams
}

func NewTestIOStreams() (IOStreams, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}, in, out, errOut
}

// IsTerminal reports whether w is backed by a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	fd, ok := fileDescriptor(w)
	if !ok {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// TerminalSize returns the dimensions of the terminal behind w, or the
// provided defaults when w is not a terminal.
func TerminalSize(w io.Writer, defaultWidth, defaultHeight int) (int, int) {
	fd, ok := fileDescriptor(w)
	if !ok {
		return defaultWidth, defaultHeight
	}
	width, height, err := term.GetSize(int(fd))
	if err != nil || width <= 0 || height <= 0 {
		return defaultWidth, defaultHeight
	}
	return width, height
}

func fileDescriptor(w io.Writer) (uintptr, bool) {
	fp, ok := w.(fdProvider)
	if !ok {
		return 0, false
	}
	fd := fp.Fd()
	if fd == ^uintptr(0) {
		return 0, false
	}
	return fd, true
}

// ReadSecret reads one line from r without echo when r is a terminal.
func ReadSecret(r io.Reader) (string, error) {
	if fp, ok := r.(fdProvider); ok && term.IsTerminal(int(fp.Fd())) {
		data, err := term.ReadPassword(int(fp.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return ReadLine(r)
}

// ReadLine reads up to the next newline without buffering past it, so the rest
// of r stays available to later prompts.
func ReadLine(r io.Reader) (string, error) {
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(line.String()), nil
}
