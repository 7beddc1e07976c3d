package profile

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestManagerProfiles(t *testing.T) {
	v := viper.New()
	v.Set("default.output", "text")
	v.Set("staging.inventree.base-url", "https://staging.example.com")

	mgr := NewManager(v)
	require.Equal(t, []string{"default", "staging"}, mgr.GetProfiles())

	require.ErrorIs(t, mgr.CreateProfile("default"), errorProfileExists)
	require.ErrorIs(t, mgr.CreateProfile(""), errorProfileNameEmpty)

	got, err := mgr.GetProfile("staging")
	require.NoError(t, err)
	require.Contains(t, got, "inventree")

	_, err = mgr.GetProfile("missing")
	require.ErrorIs(t, err, errorProfileDoesNotExist)
}

func TestManagerCreateProfile(t *testing.T) {
	v := viper.New()
	v.Set("default.output", "text")

	mgr := NewManager(v)
	require.NoError(t, mgr.CreateProfile("staging"))
	require.Equal(t, []string{"default", "staging"}, mgr.GetProfiles())

	got, err := mgr.GetProfile("staging")
	require.NoError(t, err)
	require.Equal(t, "text", got["output"])
}
