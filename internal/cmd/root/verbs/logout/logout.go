package logout

import (
	"fmt"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/inventree/auth"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Logout
)

var (
	logoutUse = Verb.String()

	logoutShort = i18n.T("root.verbs.logout.logoutShort", "Remove the stored API token")

	logoutLong = normalizers.LongDesc(i18n.T("root.verbs.logout.logoutLong",
		`Logout removes the API token stored by login for the active profile.
Tokens set in the configuration file or environment are left untouched.`))

	logoutExamples = normalizers.Examples(i18n.T("root.verbs.logout.logoutExamples",
		fmt.Sprintf(`
	# Logout of the default profile
	%[1]s logout
	# Logout of the staging profile
	%[1]s logout --profile staging
	`, meta.CLIName)))
)

func NewLogoutCmd() (*cobra.Command, error) {
	c := &cobra.Command{
		Use:              logoutUse,
		Short:            logoutShort,
		Long:             logoutLong,
		Example:          logoutExamples,
		Args:             verbs.NoPositionalArgs,
		PersistentPreRun: verbs.SetVerb(Verb),
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
	return c, nil
}

func run(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}

	path := auth.BuildDefaultCredentialFilePath(cfg.GetPath(), cfg.GetProfile())
	removed, err := auth.DeleteCredential(path)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to remove the stored token", err, "path", path)
	}

	out := helper.GetStreams().Out
	if !removed {
		_, err = fmt.Fprintf(out, "No stored token for profile %s\n", cfg.GetProfile())
		return err
	}
	_, err = fmt.Fprintf(out, "Logged out of profile %s\n", cfg.GetProfile())
	return err
}
