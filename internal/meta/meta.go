package meta

const (
	// CLIName is the binary name used in help text, config paths and env prefixes.
	CLIName = "invctl"

	// EnvPrefix is the prefix for environment variables read by the configuration layer.
	EnvPrefix = "INVCTL"
)
