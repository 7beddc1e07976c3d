package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/test/verbtest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newCmd(t *testing.T) *cobra.Command {
	t.Helper()
	c, err := NewCacheCmd()
	require.NoError(t, err)
	return c
}

func seed(t *testing.T, env *verbtest.Env) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, env.Store.Put(ctx, "part", metadata.Labels{"name": "Name", "IPN": "IPN"}))
	require.NoError(t, env.Store.Put(ctx, "stockitem", metadata.Labels{"quantity": "Quantity"}))
}

func keys(t *testing.T, env *verbtest.Env) []string {
	t.Helper()
	entries, err := env.Store.List(context.Background())
	require.NoError(t, err)
	rv := []string{}
	for _, e := range entries {
		rv = append(rv, e.Key)
	}
	return rv
}

func TestCacheListText(t *testing.T) {
	env := verbtest.New(t)
	seed(t, env)

	require.NoError(t, env.Run(newCmd(t), "list"))

	out := env.Out.String()
	require.Contains(t, out, "Label cache")
	require.Contains(t, out, "part")
	require.Contains(t, out, "stockitem")
}

func TestCacheListJSON(t *testing.T) {
	env := verbtest.New(t)
	env.Config.Set(common.OutputConfigPath, "json")
	seed(t, env)

	require.NoError(t, env.Run(newCmd(t), "list"))

	var got []EntryInfo
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, "part", got[0].Key)
	require.Equal(t, 2, got[0].Fields)
	require.Equal(t, "Quantity", got[1].Labels["quantity"])
}

func TestCacheClearResource(t *testing.T) {
	env := verbtest.New(t)
	seed(t, env)

	require.NoError(t, env.Run(newCmd(t), "clear", "parts"))

	require.Equal(t, []string{"stockitem"}, keys(t, env))
	require.Contains(t, env.Out.String(), "part")
}

func TestCacheClearAll(t *testing.T) {
	env := verbtest.New(t)
	seed(t, env)

	require.NoError(t, env.Run(newCmd(t), "clear"))

	require.Empty(t, keys(t, env))
	require.Contains(t, env.Out.String(), "Label cache cleared")
}
