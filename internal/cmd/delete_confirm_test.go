package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/inventree/invctl/internal/iostreams"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newConfirmHelper(input string) (Helper, *bytes.Buffer) {
	streams, in, out, _ := iostreams.NewTestIOStreams()
	in.WriteString(input)

	c := &cobra.Command{Use: "delete"}
	ctx := context.WithValue(context.Background(), iostreams.StreamsKey, &streams)
	c.SetContext(ctx)
	return BuildHelper(c, nil), out
}

func TestConfirmDeleteTwoSteps(t *testing.T) {
	helper, out := newConfirmHelper("y\nyes\n")

	err := ConfirmDelete(helper, "2 parts", []string{"Resistor 10k", "Wire red"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "  - Resistor 10k")
	require.Contains(t, out.String(), "Continue? [y/N]")
	require.Contains(t, out.String(), "Type 'yes'")
}

func TestConfirmDeleteFirstStepDeclined(t *testing.T) {
	helper, out := newConfirmHelper("n\n")

	err := ConfirmDelete(helper, "1 part", []string{"Wire red"})
	require.Error(t, err)
	require.NotContains(t, out.String(), "Type 'yes'")
}

func TestConfirmDeleteSecondStepRequiresYes(t *testing.T) {
	helper, _ := newConfirmHelper("y\ny\n")

	err := ConfirmDelete(helper, "1 part", []string{"Wire red"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "delete cancelled")
}

func TestConfirmDeleteForceSkipsFirstStep(t *testing.T) {
	helper, out := newConfirmHelper("yes\n")
	SetDeleteForce(helper.GetCmd(), true)

	require.NoError(t, ConfirmDelete(helper, "1 part", []string{"Wire red"}))
	require.NotContains(t, out.String(), "Continue?")
}

func TestConfirmDeleteAutoApprove(t *testing.T) {
	helper, out := newConfirmHelper("")
	SetDeleteAutoApprove(helper.GetCmd(), true)

	require.NoError(t, ConfirmDelete(helper, "1 part", nil))
	require.Empty(t, out.String())
}
