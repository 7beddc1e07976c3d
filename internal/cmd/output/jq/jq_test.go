package jq

import (
	"bytes"
	"testing"
	"time"

	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type stubConfig struct {
	values     map[string]string
	boolValues map[string]bool
}

func (s stubConfig) Save() error                                               { return nil }
func (s stubConfig) GetString(key string) string                               { return s.values[key] }
func (s stubConfig) GetBool(key string) bool                                   { return s.boolValues[key] }
func (s stubConfig) GetInt(string) int                                         { return 0 }
func (s stubConfig) GetIntOrElse(_ string, orElse int) int                     { return orElse }
func (s stubConfig) GetDurationOrElse(_ string, d time.Duration) time.Duration { return d }
func (s stubConfig) GetStringSlice(string) []string                            { return nil }
func (s stubConfig) SetString(string, string)                                  {}
func (s stubConfig) Set(string, any)                                           {}
func (s stubConfig) Get(string) any                                            { return nil }
func (s stubConfig) BindFlag(string, *pflag.Flag) error                        { return nil }
func (s stubConfig) GetProfile() string                                        { return "default" }
func (s stubConfig) GetPath() string                                           { return "" }

func newCommand() *cobra.Command {
	command := &cobra.Command{Use: "list"}
	AddFlags(command.Flags())
	return command
}

func TestResolveSettingsDefaults(t *testing.T) {
	settings, err := ResolveSettings(newCommand(), nil)
	require.NoError(t, err)
	require.False(t, settings.Active())
	require.Equal(t, common.ColorModeAuto, settings.ColorMode)
	require.Equal(t, DefaultTheme, settings.Theme)
}

func TestResolveSettingsEmptyFilterIsIdentity(t *testing.T) {
	command := newCommand()
	require.NoError(t, command.Flags().Set(FlagName, ""))

	settings, err := ResolveSettings(command, nil)
	require.NoError(t, err)
	require.Equal(t, ".", settings.Filter)
}

func TestResolveSettingsRawShortFlag(t *testing.T) {
	command := newCommand()
	require.NoError(t, command.Flags().Parse([]string{"-r"}))

	settings, err := ResolveSettings(command, nil)
	require.NoError(t, err)
	require.True(t, settings.RawOutput)
}

func TestResolveSettingsFromConfig(t *testing.T) {
	cfg := stubConfig{
		values:     map[string]string{ColorEnabledConfigPath: "never", ColorThemeConfigPath: "github"},
		boolValues: map[string]bool{RawOutputConfigPath: true},
	}
	settings, err := ResolveSettings(newCommand(), cfg)
	require.NoError(t, err)
	require.Equal(t, common.ColorModeNever, settings.ColorMode)
	require.Equal(t, "github", settings.Theme)
	require.True(t, settings.RawOutput)
}

func TestResolveSettingsWithoutFlag(t *testing.T) {
	settings, err := ResolveSettings(&cobra.Command{Use: "version"}, stubConfig{})
	require.NoError(t, err)
	require.False(t, settings.Active())
}

func TestValidate(t *testing.T) {
	require.Error(t, Validate(common.TEXT, Settings{Filter: "."}))
	require.Error(t, Validate(common.JSON, Settings{RawOutput: true}))
	require.Error(t, Validate(common.YAML, Settings{Filter: ".", RawOutput: true}))
	require.NoError(t, Validate(common.YAML, Settings{Filter: "."}))
	require.NoError(t, Validate(common.TEXT, Settings{}))
}

func TestApplySelectsField(t *testing.T) {
	rows := []map[string]any{{"pk": 1, "name": "Resistor 10k"}, {"pk": 2, "name": "Capacitor 100nF"}}
	settings := Settings{Filter: "[.[].name]", ColorMode: common.ColorModeNever}

	value, handled, err := Apply(rows, common.JSON, settings, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, handled)
	require.Equal(t, []any{"Resistor 10k", "Capacitor 100nF"}, value)
}

func TestApplyMultipleResultsBecomeList(t *testing.T) {
	rows := []map[string]any{{"pk": 1}, {"pk": 2}}
	value, _, err := Apply(rows, common.YAML, Settings{Filter: ".[].pk"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(2)}, value)
}

func TestApplyRawWritesLines(t *testing.T) {
	rows := []map[string]any{{"name": "Wire red"}, {"name": "LED green"}}
	buf := &bytes.Buffer{}

	value, handled, err := Apply(rows, common.JSON, Settings{Filter: ".[].name", RawOutput: true}, buf)
	require.NoError(t, err)
	require.True(t, handled)
	require.Nil(t, value)
	require.Equal(t, "Wire red\nLED green\n", buf.String())
}

func TestApplyColorWritesDirectly(t *testing.T) {
	buf := &bytes.Buffer{}
	_, handled, err := Apply(map[string]any{"pk": 1}, common.JSON, Settings{
		Filter:    ".",
		ColorMode: common.ColorModeAlways,
		Theme:     DefaultTheme,
	}, buf)
	require.NoError(t, err)
	require.True(t, handled)
	require.Contains(t, buf.String(), "\x1b[")
}

func TestEvaluateRejectsInvalidExpression(t *testing.T) {
	_, err := Evaluate([]byte(`{"pk":1}`), ".pk[")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid jq expression")
}
