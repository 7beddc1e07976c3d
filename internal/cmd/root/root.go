package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inventree/invctl/internal/build"
	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/cmd/root/profile"
	"github.com/inventree/invctl/internal/cmd/root/verbs/cache"
	"github.com/inventree/invctl/internal/cmd/root/verbs/create"
	"github.com/inventree/invctl/internal/cmd/root/verbs/del"
	"github.com/inventree/invctl/internal/cmd/root/verbs/describe"
	"github.com/inventree/invctl/internal/cmd/root/verbs/export"
	"github.com/inventree/invctl/internal/cmd/root/verbs/get"
	"github.com/inventree/invctl/internal/cmd/root/verbs/help"
	"github.com/inventree/invctl/internal/cmd/root/verbs/labels"
	"github.com/inventree/invctl/internal/cmd/root/verbs/list"
	"github.com/inventree/invctl/internal/cmd/root/verbs/login"
	"github.com/inventree/invctl/internal/cmd/root/verbs/logout"
	"github.com/inventree/invctl/internal/cmd/root/version"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/meta"
	pmgr "github.com/inventree/invctl/internal/profile"
	"github.com/inventree/invctl/internal/theme"
	"github.com/inventree/invctl/internal/util"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  invctl browses and edits the tables of an InvenTree inventory server.

  Records are listed page by page with filters, search and sorting, either as
  static output or in an interactive grid. Run 'invctl help tables' to start.`))

	rootShort = i18n.T("root/rootShort", fmt.Sprintf("%s works with InvenTree inventory tables", meta.CLIName))

	rootCmd *cobra.Command

	// Stores the global runtime value for the Configuration file path,
	configFilePath = config.ExpandDefaultConfigFilePath()
	currProfile    = pmgr.DefaultProfile

	currConfig   *config.ProfiledConfig
	streams      *iostreams.IOStreams
	pMgr         pmgr.Manager
	outputFormat = cmd.NewEnum([]string{"json", "yaml", "text"}, "text")
	logLevel     = cmd.NewEnum([]string{"trace", "debug", "info", "warn", "error"}, common.DefaultLogLevel)

	buildInfo *build.Info
	logFile   *os.File
)

// configBoundFlags are the root flags whose values override the profile configuration.
var configBoundFlags = []struct {
	flag string
	path string
}{
	{common.OutputFlagName, common.OutputConfigPath},
	{common.LogLevelFlagName, common.LogLevelConfigPath},
	{common.LogFileFlagName, common.LogFileConfigPath},
	{common.ColorThemeFlagName, common.ColorThemeConfigPath},
	{common.BaseURLFlagName, common.BaseURLConfigPath},
	{common.TokenFlagName, common.TokenConfigPath},
	{common.TimeoutFlagName, common.TimeoutConfigPath},
	{common.PageSizeFlagName, common.PageSizeConfigPath},
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           meta.CLIName,
		Short:         rootShort,
		Long:          rootLong,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			if name := currConfig.GetString(common.ColorThemeConfigPath); name != "" {
				if err := theme.SetCurrent(name); err != nil {
					logger.Warn("unknown color theme, using the default", "theme", name, "error", err)
				}
			}

			ctx := context.WithValue(cmd.Context(), config.ConfigKey, config.Hook(currConfig))
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, pmgr.ProfileManagerKey, pMgr)
			ctx = context.WithValue(ctx, build.InfoKey, buildInfo)
			ctx = context.WithValue(ctx, log.LoggerKey, logger)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return closeLogFile()
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	rootCmd.PersistentFlags().StringVar(&configFilePath, common.ConfigFilePathFlagName,
		config.ExpandDefaultConfigFilePath(),
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	rootCmd.PersistentFlags().StringVarP(&currProfile, common.ProfileFlagName, common.ProfileFlagShort,
		pmgr.DefaultProfile,
		"Specify the profile to use for this command.")

	// -------------------------------------------------------------------------
	// Add the output flag, which defines the text output format.
	// This requires some extra gymnastics to ensure that the output flag is
	// from a valid set of values. There may be a way to do this more elegantly
	// in the pFlag library
	rootCmd.PersistentFlags().VarP(outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(outputFormat.Allowed, "|")))
	// -------------------------------------------------------------------------

	rootCmd.PersistentFlags().Var(logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging level.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(logLevel.Allowed, "|")))

	util.CheckError(rootCmd.RegisterFlagCompletionFunc(common.OutputFlagName, outputFormat.Complete))
	util.CheckError(rootCmd.RegisterFlagCompletionFunc(common.LogLevelFlagName, logLevel.Complete))

	rootCmd.PersistentFlags().String(common.LogFileFlagName, "",
		fmt.Sprintf(`Write log records to this file instead of stderr.
- Config path: [ %s ]`, common.LogFileConfigPath))

	rootCmd.PersistentFlags().String(common.ColorThemeFlagName, common.DefaultColorTheme,
		fmt.Sprintf(`Color theme of the interactive grid.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorThemeConfigPath, strings.Join(theme.Available(), "|")))

	rootCmd.PersistentFlags().String(common.BaseURLFlagName, "",
		fmt.Sprintf(`Base URL of the InvenTree server, e.g. %s.
- Config path: [ %s ]`,
			common.BaseURLDefault, common.BaseURLConfigPath))

	rootCmd.PersistentFlags().String(common.TokenFlagName, "",
		fmt.Sprintf(`API token. Overrides the token stored by login.
- Config path: [ %s ]`, common.TokenConfigPath))

	rootCmd.PersistentFlags().String(common.TimeoutFlagName, common.DefaultTimeout,
		fmt.Sprintf(`Timeout of a single request.
- Config path: [ %s ]`, common.TimeoutConfigPath))

	rootCmd.PersistentFlags().Int(common.PageSizeFlagName, common.DefaultPageSize,
		fmt.Sprintf(`Records per page.
- Config path: [ %s ]`, common.PageSizeConfigPath))

	return rootCmd
}

// addCommands adds the root subcommands to the command.
func addCommands() error {
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(profile.NewProfileCmd())
	rootCmd.SetHelpCommand(help.NewHelpCmd())

	for _, newCmd := range []func() (*cobra.Command, error){
		list.NewListCmd,
		get.NewGetCmd,
		describe.NewDescribeCmd,
		create.NewCreateCmd,
		del.NewDeleteCmd,
		export.NewExportCmd,
		labels.NewPrintCmd,
		cache.NewCacheCmd,
		login.NewLoginCmd,
		logout.NewLogoutCmd,
	} {
		c, e := newCmd()
		if e != nil {
			return e
		}
		rootCmd.AddCommand(c)
	}

	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()
	err := addCommands()
	util.CheckError(err)

	// Because the profile is not part of the configuration, we can't use viper
	// to read it following it's built in priorities.  So here we look for a well known
	// profile variable and set our package level variable if it's set before
	// continuing to process the command run.  This creates a ENV_VAR < CLI_FLAG priority
	profileEnvVar, found := os.LookupEnv(fmt.Sprintf("%s_PROFILE", meta.EnvPrefix))
	if found {
		currProfile = profileEnvVar
	}
}

func initConfig() {
	config, e1 := config.GetConfig(configFilePath, currProfile, config.ExpandDefaultConfigFilePath())
	util.CheckError(e1)
	currConfig = config

	pMgr = pmgr.NewManager(config.Viper)

	for _, b := range configBoundFlags {
		f := rootCmd.PersistentFlags().Lookup(b.flag)
		util.CheckError(config.BindFlag(b.path, f))
	}
}

// newLogger writes records to the configured log file, or to stderr when the
// level is more verbose than error. Errors are mirrored to stderr in a friendly
// form either way.
func newLogger() (*slog.Logger, error) {
	level := currConfig.GetString(common.LogLevelConfigPath)
	var logOut io.Writer
	if path := strings.TrimSpace(currConfig.GetString(common.LogFileConfigPath)); path != "" {
		path = os.ExpandEnv(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &cmd.ConfigurationError{Err: fmt.Errorf("unable to create log directory: %w", err)}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, &cmd.ConfigurationError{Err: fmt.Errorf("unable to open log file: %w", err)}
		}
		logFile = f
		logOut = f
	} else if log.ConfigLevelStringToSlogLevel(level) < slog.LevelError {
		logOut = streams.ErrOut
	}
	return log.NewLogger(logOut, streams.ErrOut, level), nil
}

func closeLogFile() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) {
	if bi == nil {
		bi = version.Info()
	}
	buildInfo = bi
	cobra.EnableTraverseRunHooks = true
	streams = s
	rootCmd.SetIn(s.In)
	rootCmd.SetOut(s.Out)
	rootCmd.SetErr(s.ErrOut)
	err := rootCmd.ExecuteContext(ctx)
	_ = closeLogFile()
	if err == nil {
		return
	}

	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) {
		format := outputFormat.String()
		if currConfig != nil && currConfig.GetString(common.OutputConfigPath) != "" {
			format = currConfig.GetString(common.OutputConfigPath)
		}
		printer, perr := cli.Format(format, s.ErrOut)
		if perr != nil {
			fmt.Fprintln(s.ErrOut, "Error:", executionError.Msg)
			os.Exit(1)
		}
		printer.Print(executionError)
		printer.Flush()
		os.Exit(1)
	}

	fmt.Fprintln(s.ErrOut, "Error:", err)
	os.Exit(1)
}
