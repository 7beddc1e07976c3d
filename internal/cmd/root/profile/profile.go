package profile

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/cmd/output/tableview"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/profile"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

var (
	profileUse   = "profile"
	profileShort = i18n.T("root.profile.profileShort", "Manage CLI profiles")
	profileLong  = normalizers.LongDesc(i18n.T("root.profile.profileLong",
		`The profile command lists, shows and creates the profiles of the configuration file.
Each profile holds its own server, token and output settings.`))
	profileExamples = normalizers.Examples(i18n.T("root.profile.profileExamples",
		fmt.Sprintf(`
		# List the profiles
		%[1]s profile list
		# Show the settings of the staging profile
		%[1]s profile show staging
		# Add a profile
		%[1]s profile create staging
		`, meta.CLIName)))
)

// Info describes one profile.
type Info struct {
	Name     string         `json:"name" yaml:"name"`
	Active   bool           `json:"active" yaml:"active"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

func NewProfileCmd() *cobra.Command {
	rv := &cobra.Command{
		Use:     profileUse,
		Short:   profileShort,
		Long:    profileLong,
		Example: profileExamples,
		Aliases: []string{"profiles"},
	}
	rv.AddCommand(
		&cobra.Command{
			Use:     "list",
			Short:   i18n.T("root.profile.list.short", "List the configured profiles"),
			Aliases: []string{"ls"},
			Args:    cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				return runList(cmd.BuildHelper(c, args))
			},
		},
		&cobra.Command{
			Use:   "show [name]",
			Short: i18n.T("root.profile.show.short", "Show the settings of a profile"),
			Args:  cobra.MaximumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return runShow(cmd.BuildHelper(c, args))
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: i18n.T("root.profile.create.short", "Add an empty profile to the configuration file"),
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return runCreate(cmd.BuildHelper(c, args))
			},
		},
	)
	return rv
}

func manager(helper cmd.Helper) (profile.Manager, error) {
	m, ok := helper.GetContext().Value(profile.ProfileManagerKey).(profile.Manager)
	if !ok || m == nil {
		return nil, &cmd.ConfigurationError{Err: fmt.Errorf("no profile manager configured")}
	}
	return m, nil
}

func runList(helper cmd.Helper) error {
	m, err := manager(helper)
	if err != nil {
		return err
	}
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}

	names := m.GetProfiles()
	if !slices.Contains(names, cfg.GetProfile()) {
		names = append(names, cfg.GetProfile())
		sort.Strings(names)
	}
	infos := make([]Info, 0, len(names))
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		active := name == cfg.GetProfile()
		infos = append(infos, Info{Name: name, Active: active})
		marker := ""
		if active {
			marker = "*"
		}
		rows = append(rows, []string{marker, name})
	}

	return tableview.RenderForFormat(helper, outType, infos, func() error {
		return tableview.Static(helper.GetStreams().Out, i18n.T("root.profile.title", "Profiles"),
			[]string{"", "Name"}, rows, "")
	})
}

func runShow(helper cmd.Helper) error {
	m, err := manager(helper)
	if err != nil {
		return err
	}
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	name := cfg.GetProfile()
	if args := helper.GetArgs(); len(args) > 0 {
		name = args[0]
	}

	settings, err := m.GetProfile(name)
	if err != nil {
		return cmd.PrepareExecutionErrorMsg(helper, fmt.Sprintf("profile %s: %v", name, err), "profile", name)
	}
	redact(settings, "")

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	info := Info{Name: name, Active: name == cfg.GetProfile(), Settings: settings}
	return tableview.RenderForFormat(helper, outType, info, func() error {
		return tableview.Static(helper.GetStreams().Out, name,
			[]string{"Setting", "Label", "Value"}, tableview.FieldRows(settings, nil), "")
	})
}

func runCreate(helper cmd.Helper) error {
	m, err := manager(helper)
	if err != nil {
		return err
	}
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	name := strings.TrimSpace(helper.GetArgs()[0])
	if err := m.CreateProfile(name); err != nil {
		return cmd.PrepareExecutionErrorMsg(helper, fmt.Sprintf("profile %s: %v", name, err), "profile", name)
	}
	if err := cfg.Save(); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to write the configuration file", err, "path", cfg.GetPath())
	}
	_, err = fmt.Fprintf(helper.GetStreams().Out, "Created profile %s in %s\n", name, cfg.GetPath())
	return err
}

// redact masks the API token wherever it appears in a settings tree.
func redact(settings map[string]any, prefix string) {
	for k, v := range settings {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			redact(val, path)
		default:
			if path == common.TokenConfigPath && fmt.Sprint(val) != "" {
				settings[k] = "********"
			}
		}
	}
}
