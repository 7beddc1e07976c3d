package help

import (
	"embed"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/inventree/invctl/internal/cmd/output/markdown"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

//go:embed templates/*.md
var helpTemplates embed.FS

var (
	helpUse = "help"

	helpShort = i18n.T("root.verbs.help.helpShort", "Display extended help for a topic or command")

	helpLong = normalizers.LongDesc(i18n.T("root.verbs.help.helpLong",
		`Display extended help documentation.

Topics cover filters, label templates, table definitions and configuration.
Any other name falls back to the help of the command of that name. Without
arguments the available topics are listed.`))

	helpExamples = normalizers.Examples(i18n.T("root.verbs.help.helpExamples",
		fmt.Sprintf(`
  # Show how filters are written
  %[1]s help filters

  # Show the label template functions
  %[1]s help labels

  # Show the help of the list command
  %[1]s help list`, meta.CLIName)))
)

// NewHelpCmd creates a new help command
func NewHelpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     helpUse + " [topic|command]",
		Short:   helpShort,
		Long:    helpLong,
		Example: helpExamples,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runHelp,
	}

	return cmd
}

func runHelp(cmd *cobra.Command, args []string) error {
	streams, ok := cmd.Context().Value(iostreams.StreamsKey).(*iostreams.IOStreams)
	if !ok {
		streams = iostreams.GetOSIOStreams()
	}

	if len(args) == 0 {
		return listTopics(streams.Out)
	}

	helpContent, err := loadHelpTemplate(args[0])
	if err != nil {
		// If no extended help exists, fall back to regular help
		targetCmd, _, err := cmd.Root().Find([]string{args[0]})
		if err != nil || targetCmd == cmd.Root() {
			return fmt.Errorf("unknown help topic or command %q", args[0])
		}
		targetCmd.SetOut(streams.Out)
		return targetCmd.Help()
	}

	rendered := markdown.Render(helpContent, markdown.OptionsFor(streams.Out))
	if !iostreams.IsTerminal(streams.Out) {
		_, err := fmt.Fprintln(streams.Out, rendered)
		return err
	}

	// Display help through pager if available
	if err := displayWithPager(rendered, streams); err != nil {
		// Fall back to direct output if pager fails
		fmt.Fprintln(streams.Out, rendered)
	}

	return nil
}

// Topics lists the extended help topics.
func Topics() []string {
	entries, err := helpTemplates.ReadDir("templates")
	if err != nil {
		return nil
	}
	rv := make([]string, 0, len(entries))
	for _, e := range entries {
		rv = append(rv, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(rv)
	return rv
}

func listTopics(out io.Writer) error {
	if _, err := fmt.Fprintln(out, i18n.T("root.verbs.help.topics", "Help topics:")); err != nil {
		return err
	}
	for _, topic := range Topics() {
		if _, err := fmt.Fprintf(out, "  %s\n", topic); err != nil {
			return err
		}
	}
	return nil
}

func loadHelpTemplate(topic string) (string, error) {
	content, err := helpTemplates.ReadFile(fmt.Sprintf("templates/%s.md", path.Base(topic)))
	if err != nil {
		return "", err
	}

	return string(content), nil
}

func displayWithPager(content string, streams *iostreams.IOStreams) error {
	pager := os.Getenv("PAGER")
	if pager == "" {
		for _, p := range []string{"less", "more"} {
			if _, err := exec.LookPath(p); err == nil {
				pager = p
				break
			}
		}
	}

	if pager == "" {
		return fmt.Errorf("no pager found")
	}

	if strings.Contains(pager, "less") {
		pager = "less -R"
	}

	var pagerCmd *exec.Cmd
	if runtime.GOOS == "windows" {
		pagerCmd = exec.Command("cmd", "/c", pager)
	} else {
		pagerCmd = exec.Command("sh", "-c", pager)
	}

	pagerCmd.Stdout = streams.Out
	pagerCmd.Stderr = streams.ErrOut

	pipeReader, pipeWriter := io.Pipe()
	pagerCmd.Stdin = pipeReader

	if err := pagerCmd.Start(); err != nil {
		pipeWriter.Close()
		return err
	}

	go func() {
		defer pipeWriter.Close()
		fmt.Fprint(pipeWriter, content)
	}()

	return pagerCmd.Wait()
}
