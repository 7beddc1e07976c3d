// Package jq filters structured command output with jq expressions.
package jq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	FlagName               = "jq"
	ColorFlagName          = "jq-color"
	ColorThemeFlagName     = "jq-color-theme"
	RawOutputFlagName      = "jq-raw-output"
	RawOutputFlagShort     = "r"
	ColorEnabledConfigPath = "jq.color.enabled"
	ColorThemeConfigPath   = "jq.color.theme"
	RawOutputConfigPath    = "jq.raw-output"
	DefaultTheme           = "friendly"
)

var compiled sync.Map

// Settings is the resolved jq configuration for one command run.
type Settings struct {
	Filter    string
	ColorMode common.ColorMode
	Theme     string
	RawOutput bool
}

// Active reports whether a filter was requested.
func (s Settings) Active() bool {
	return strings.TrimSpace(s.Filter) != ""
}

// AddFlags registers the jq flags on a command.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagName, "", "Filter json or yaml output with a jq expression.")

	color := cmd.NewEnum([]string{
		common.ColorModeAuto.String(),
		common.ColorModeAlways.String(),
		common.ColorModeNever.String(),
	}, common.ColorModeAuto.String())
	flags.Var(color, ColorFlagName, fmt.Sprintf(`Colorize jq results.
- Config path: [ %s ]`, ColorEnabledConfigPath))

	flags.String(ColorThemeFlagName, DefaultTheme, fmt.Sprintf(`Chroma style used for colorized jq results.
- Config path: [ %s ]`, ColorThemeConfigPath))

	flags.BoolP(RawOutputFlagName, RawOutputFlagShort, false, fmt.Sprintf(`Print string results without quotes.
- Config path: [ %s ]`, RawOutputConfigPath))
}

// BindFlags binds the jq flags to their config paths.
func BindFlags(cfg config.Hook, flags *pflag.FlagSet) error {
	if cfg == nil || flags == nil {
		return nil
	}
	for flagName, path := range map[string]string{
		ColorFlagName:      ColorEnabledConfigPath,
		ColorThemeFlagName: ColorThemeConfigPath,
		RawOutputFlagName:  RawOutputConfigPath,
	} {
		if f := flags.Lookup(flagName); f != nil {
			if err := cfg.BindFlag(path, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolveSettings reads the flags of command, falling back to cfg.
// Commands without the jq flag never filter.
func ResolveSettings(command *cobra.Command, cfg config.Hook) (Settings, error) {
	settings := Settings{Theme: DefaultTheme, ColorMode: common.ColorModeAuto}
	if command == nil || command.Flags().Lookup(FlagName) == nil {
		return settings, nil
	}
	flags := command.Flags()

	filter, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	settings.Filter = strings.TrimSpace(filter)
	if settings.Filter == "" && flags.Changed(FlagName) {
		settings.Filter = "."
	}

	if cfg == nil {
		settings.RawOutput, err = flags.GetBool(RawOutputFlagName)
		return settings, err
	}

	settings.ColorMode, err = common.ColorModeStringToIota(strings.ToLower(strings.TrimSpace(cfg.GetString(ColorEnabledConfigPath))))
	if err != nil {
		return Settings{}, err
	}
	if theme := strings.TrimSpace(cfg.GetString(ColorThemeConfigPath)); theme != "" {
		settings.Theme = theme
	}
	settings.RawOutput = cfg.GetBool(RawOutputConfigPath)
	return settings, nil
}

// Validate rejects combinations that cannot be printed.
func Validate(outType common.OutputFormat, settings Settings) error {
	if settings.RawOutput && !settings.Active() {
		return &cmd.ConfigurationError{Err: fmt.Errorf("--%s requires --%s", RawOutputFlagName, FlagName)}
	}
	if settings.RawOutput && outType != common.JSON {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json", RawOutputFlagName),
		}
	}
	if settings.Active() && outType == common.TEXT {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json or --output yaml", FlagName),
		}
	}
	return nil
}

// Apply filters raw. When the result was already written to out, handled is true
// and the caller prints nothing; otherwise the filtered value is returned for printing.
func Apply(raw any, outType common.OutputFormat, settings Settings, out io.Writer) (any, bool, error) {
	if !settings.Active() {
		return raw, false, nil
	}
	if err := Validate(outType, settings); err != nil {
		return nil, false, err
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode output for jq: %w", err)
	}
	results, err := Evaluate(body, settings.Filter)
	if err != nil {
		return nil, false, err
	}

	if settings.RawOutput {
		return nil, true, writeRaw(results, out)
	}

	var value any = results
	switch len(results) {
	case 0:
		value = nil
	case 1:
		value = results[0]
	}

	if outType == common.JSON && useColor(settings.ColorMode, out) {
		pretty, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, false, err
		}
		_, err = fmt.Fprintln(out, strings.TrimRight(Colorize(string(pretty), settings.Theme), "\n"))
		return nil, true, err
	}
	return value, false, nil
}

// Evaluate runs filter over a JSON document and returns every emitted value.
func Evaluate(body []byte, filter string) ([]any, error) {
	if strings.TrimSpace(filter) == "" {
		filter = "."
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}

	code, err := compile(filter)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := code.Run(payload)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func compile(filter string) (*gojq.Code, error) {
	if code, ok := compiled.Load(filter); ok {
		return code.(*gojq.Code), nil
	}
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	compiled.Store(filter, code)
	return code, nil
}

func writeRaw(results []any, out io.Writer) error {
	for _, result := range results {
		line, ok := result.(string)
		if !ok {
			encoded, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to encode jq result: %w", err)
			}
			line = string(encoded)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func useColor(mode common.ColorMode, out io.Writer) bool {
	switch mode {
	case common.ColorModeAlways:
		return true
	case common.ColorModeNever:
		return false
	}
	if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
		return false
	}
	return iostreams.IsTerminal(out)
}

// Colorize highlights formatted JSON with the named chroma style.
func Colorize(formatted, theme string) string {
	lexer := lexers.Get("json")
	formatter := formatters.Get("terminal256")
	if lexer == nil || formatter == nil {
		return formatted
	}
	iterator, err := lexer.Tokenise(nil, formatted)
	if err != nil {
		return formatted
	}
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return formatted
	}
	return buf.String()
}
