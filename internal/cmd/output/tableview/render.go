package tableview

import (
	"fmt"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	jqoutput "github.com/inventree/invctl/internal/cmd/output/jq"
	"github.com/segmentio/cli"
)

// TextRenderer writes the text form of a result.
type TextRenderer func() error

// RenderForFormat prints raw as json or yaml, after the jq filter when one is set,
// and delegates text output to text.
func RenderForFormat(helper cmd.Helper, outType common.OutputFormat, raw any, text TextRenderer) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	settings, err := jqoutput.ResolveSettings(helper.GetCmd(), cfg)
	if err != nil {
		return err
	}
	if err := jqoutput.Validate(outType, settings); err != nil {
		return err
	}

	streams := helper.GetStreams()
	switch outType {
	case common.TEXT:
		return text()
	case common.JSON, common.YAML:
		filtered, handled, err := jqoutput.Apply(raw, outType, settings, streams.Out)
		if err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, "jq filter failed", err)
		}
		if handled {
			return nil
		}
		printer, err := cli.Format(outType.String(), streams.Out)
		if err != nil {
			return err
		}
		defer printer.Flush()
		printer.Print(filtered)
		return nil
	default:
		return fmt.Errorf("tableview: unsupported output format %s", outType.String())
	}
}
