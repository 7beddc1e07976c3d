package get

import (
	"encoding/json"
	"testing"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/table/fetch"
	"github.com/inventree/invctl/test/verbtest"
	"github.com/stretchr/testify/require"
)

func TestGetPrintsFieldsWithLabels(t *testing.T) {
	env := verbtest.New(t)
	c, err := NewGetCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "part", "1"))

	out := env.Out.String()
	require.Contains(t, out, "parts 1")
	require.Contains(t, out, "In Stock")
	require.Contains(t, out, "R-10K")
	require.Contains(t, out, "1200")
}

func TestGetJSON(t *testing.T) {
	env := verbtest.New(t)
	env.Config.Set(common.OutputConfigPath, "json")
	c, err := NewGetCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "parts", "7"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &got))
	require.Equal(t, "Resistor 1k", got["name"])
}

func TestGetOpensDetailPage(t *testing.T) {
	env := verbtest.New(t)
	c, err := NewGetCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "parts", "12", "--open"))
	require.Equal(t, []string{env.Server.URL + "/web/part/12/"}, env.Opened)
}

func TestGetMissingRecord(t *testing.T) {
	env := verbtest.New(t)
	c, err := NewGetCmd()
	require.NoError(t, err)

	err = env.Run(c, "parts", "99")
	var execErr *cmd.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, fetch.MsgNotFound, execErr.Msg)
}
