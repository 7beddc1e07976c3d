package login

import (
	"fmt"
	"io"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/inventree"
	"github.com/inventree/invctl/internal/inventree/auth"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Login

	UsernameFlagName  = "username"
	PasswordFlagName  = "password"
	TokenNameFlagName = "token-name"
)

var (
	loginUse = Verb.String()

	loginShort = i18n.T("root.verbs.login.loginShort", "Obtain an API token for the server")

	loginLong = normalizers.LongDesc(i18n.T("root.verbs.login.loginLong",
		`Use login to exchange a username and password for an API token.

The token is stored next to the configuration file, one file per profile, and is
used by every other command unless a token is configured explicitly. Missing
credentials are prompted for.`))

	loginExamples = normalizers.Examples(i18n.T("root.verbs.login.loginExamples",
		fmt.Sprintf(`
		# Login to the configured server
		%[1]s login --username admin
		# Login to a server for the staging profile
		%[1]s login --profile staging --base-url https://stock.example.com
		`, meta.CLIName)))
)

type options struct {
	username  string
	password  string
	tokenName string
}

func NewLoginCmd() (*cobra.Command, error) {
	opts := &options{}

	c := &cobra.Command{
		Use:              loginUse,
		Short:            loginShort,
		Long:             loginLong,
		Example:          loginExamples,
		Args:             verbs.NoPositionalArgs,
		PersistentPreRun: verbs.SetVerb(Verb),
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args), opts)
		},
	}

	c.Flags().StringVarP(&opts.username, UsernameFlagName, "u", "",
		i18n.T("root.verbs.login."+UsernameFlagName, "Account name. Prompted for when empty."))
	c.Flags().StringVar(&opts.password, PasswordFlagName, "",
		i18n.T("root.verbs.login."+PasswordFlagName, "Account password. Prompted for without echo when empty."))
	c.Flags().StringVar(&opts.tokenName, TokenNameFlagName, meta.CLIName,
		i18n.T("root.verbs.login."+TokenNameFlagName, "Name the server records for the new token."))

	return c, nil
}

func run(helper cmd.Helper, opts *options) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	base, err := inventree.BaseURL(cfg)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	streams := helper.GetStreams()
	username := opts.username
	if username == "" {
		if username, err = prompt(streams, i18n.T("root.verbs.login.username", "Username"), iostreams.ReadLine); err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, "input aborted", err)
		}
	}
	password := opts.password
	if password == "" {
		if password, err = prompt(streams, i18n.T("root.verbs.login.password", "Password"), iostreams.ReadSecret); err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, "input aborted", err)
		}
		fmt.Fprintln(streams.ErrOut)
	}
	if username == "" || password == "" {
		return &cmd.ConfigurationError{Err: fmt.Errorf("a username and password are required")}
	}

	ctx := log.WithHTTPLogContext(helper.GetContext(), log.HTTPLogContext{Action: "login"})
	cred, err := auth.RequestToken(ctx, inventree.NewHTTPClient(cfg, logger), base, username, password, opts.tokenName)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "login failed", err, "base_url", base, "username", username)
	}

	path := auth.BuildDefaultCredentialFilePath(cfg.GetPath(), cfg.GetProfile())
	if err := auth.SaveCredential(path, cred); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to store the token", err, "path", path)
	}
	logger.Debug("stored API token", "path", path, "profile", cfg.GetProfile())

	_, err = fmt.Fprintf(streams.Out, "Logged in to %s as %s (profile %s)\n", base, username, cfg.GetProfile())
	return err
}

func prompt(streams *iostreams.IOStreams, label string, read func(io.Reader) (string, error)) (string, error) {
	if _, err := fmt.Fprintf(streams.ErrOut, "%s: ", label); err != nil {
		return "", err
	}
	return read(streams.In)
}
