package iostreams

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSecretFromPipe(t *testing.T) {
	got, err := ReadSecret(strings.NewReader("  hunter2 \nrest\n"))
	require.NoError(t, err)
	require.Equal(t, "hunter2", got)
}

func TestReadSecretWithoutNewline(t *testing.T) {
	got, err := ReadSecret(strings.NewReader("inventree"))
	require.NoError(t, err)
	require.Equal(t, "inventree", got)
}

func TestIsTerminalOnBuffer(t *testing.T) {
	streams, _, out, _ := NewTestIOStreams()
	require.False(t, IsTerminal(out))
	require.False(t, IsTerminal(streams.ErrOut))
}

func TestReadLineLeavesRest(t *testing.T) {
	r := strings.NewReader("admin\ninventree\n")

	first, err := ReadLine(r)
	require.NoError(t, err)
	second, err := ReadLine(r)
	require.NoError(t, err)

	require.Equal(t, "admin", first)
	require.Equal(t, "inventree", second)
}
