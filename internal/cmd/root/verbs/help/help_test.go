package help

import (
	"context"
	"testing"

	"github.com/inventree/invctl/internal/iostreams"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	streams, _, out, _ := iostreams.NewTestIOStreams()

	root := &cobra.Command{Use: "invctl"}
	root.AddCommand(&cobra.Command{Use: "list", Short: "List records", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(NewHelpCmd())
	root.SetArgs(append([]string{"help"}, args...))
	root.SetOut(out)

	err := root.ExecuteContext(context.WithValue(context.Background(), iostreams.StreamsKey, &streams))
	return out.String(), err
}

func TestTopics(t *testing.T) {
	require.Equal(t, []string{"configuration", "filters", "labels", "tables"}, Topics())
}

func TestHelpListsTopics(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	require.Contains(t, out, "Help topics:")
	require.Contains(t, out, "  filters\n")
}

func TestHelpRendersTopic(t *testing.T) {
	out, err := execute(t, "labels")
	require.NoError(t, err)
	require.Contains(t, out, "Label templates")
	require.Contains(t, out, "barcode")
}

func TestHelpFallsBackToCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "List records")
}

func TestHelpUnknownTopic(t *testing.T) {
	_, err := execute(t, "widgets")
	require.ErrorContains(t, err, `unknown help topic or command "widgets"`)
}
