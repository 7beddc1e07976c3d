package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

type deleteContextKey string

const (
	deleteForceContextKey       deleteContextKey = "invctl-delete-force"
	deleteAutoApproveContextKey deleteContextKey = "invctl-delete-auto-approve"
)

// SetDeleteForce stores the --force flag value on the command context so that
// nested delete handlers can read it without rebinding flags or configs.
func SetDeleteForce(cmd *cobra.Command, force bool) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, deleteForceContextKey, force)
	cmd.SetContext(ctx)
}

// DeleteForceEnabled reports whether the current helper is operating in
// force mode (confirmation prompts should be skipped).
func DeleteForceEnabled(helper Helper) bool {
	if helper == nil || helper.GetCmd() == nil {
		return false
	}
	ctx := helper.GetCmd().Context()
	if ctx == nil {
		return false
	}
	force, _ := ctx.Value(deleteForceContextKey).(bool)
	return force
}

// SetDeleteAutoApprove stores the --yes/--approve flag state.
func SetDeleteAutoApprove(cmd *cobra.Command, approved bool) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, deleteAutoApproveContextKey, approved)
	cmd.SetContext(ctx)
}

// DeleteAutoApproveEnabled reports whether the user opted to skip confirmation prompts.
func DeleteAutoApproveEnabled(helper Helper) bool {
	if helper == nil || helper.GetCmd() == nil {
		return false
	}
	ctx := helper.GetCmd().Context()
	if ctx == nil {
		return false
	}
	approved, _ := ctx.Value(deleteAutoApproveContextKey).(bool)
	return approved
}

// ConfirmDelete runs the two step confirmation for destructive deletes. The
// first step lists what will be removed and asks to continue; the second step
// requires typing "yes". --yes skips both steps and --force skips the first.
func ConfirmDelete(helper Helper, description string, items []string, warnings ...string) error {
	if DeleteAutoApproveEnabled(helper) {
		return nil
	}

	streams := helper.GetStreams()
	input := helper.GetStreams().In
	if f, ok := input.(*os.File); ok && f.Fd() == os.Stdin.Fd() {
		if tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0); err == nil {
			defer tty.Close()
			input = tty
		}
	}
	reader := bufio.NewReader(input)

	if !DeleteForceEnabled(helper) {
		fmt.Fprintf(streams.Out, "\nYou are about to delete %s:\n", description)
		for _, item := range items {
			fmt.Fprintf(streams.Out, "  - %s\n", item)
		}
		fmt.Fprint(streams.Out, "\nContinue? [y/N]: ")
		answer, err := readLine(helper, reader)
		if err != nil || !isAffirmative(answer) {
			return PrepareExecutionErrorMsg(helper, "delete cancelled")
		}
	}

	for _, warning := range warnings {
		if strings.TrimSpace(warning) != "" {
			fmt.Fprintln(streams.Out, warning)
		}
	}
	fmt.Fprintf(streams.Out, "\nThis cannot be undone. Type 'yes' to delete %s: ", description)
	answer, err := readLine(helper, reader)
	if err != nil || strings.ToLower(answer) != "yes" {
		return PrepareExecutionErrorMsg(helper, "delete cancelled")
	}
	return nil
}

func isAffirmative(answer string) bool {
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// readLine reads one trimmed line, giving up on interrupt or context cancellation.
func readLine(helper Helper, reader *bufio.Reader) (string, error) {
	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			errCh <- err
			return
		}
		lineCh <- line
	}()

	ctx := helper.GetCmd().Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-sigCh:
		return "", errors.New("interrupted")
	case err := <-errCh:
		return "", err
	case line := <-lineCh:
		return strings.TrimSpace(line), nil
	}
}
