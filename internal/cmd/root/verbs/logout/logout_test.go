package logout

import (
	"os"
	"testing"

	"github.com/inventree/invctl/internal/inventree/auth"
	"github.com/inventree/invctl/test/verbtest"
	"github.com/stretchr/testify/require"
)

func TestLogoutRemovesToken(t *testing.T) {
	env := verbtest.New(t)
	path := auth.BuildDefaultCredentialFilePath(env.Config.GetPath(), env.Config.GetProfile())
	require.NoError(t, auth.SaveCredential(path, &auth.Credential{Token: "abc", BaseURL: env.Server.URL}))

	c, err := NewLogoutCmd()
	require.NoError(t, err)
	require.NoError(t, env.Run(c))

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Equal(t, "Logged out of profile default\n", env.Out.String())
}

func TestLogoutWithoutToken(t *testing.T) {
	env := verbtest.New(t)

	c, err := NewLogoutCmd()
	require.NoError(t, err)
	require.NoError(t, env.Run(c))
	require.Equal(t, "No stored token for profile default\n", env.Out.String())
}
