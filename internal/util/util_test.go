package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKeyValues(t *testing.T) {
	got, err := ParseKeyValues([]string{"active=true", " category = 4", "active=false"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"active": "false", "category": "4"}, got)

	_, err = ParseKeyValues([]string{"missing"})
	require.Error(t, err)

	_, err = ParseKeyValues([]string{"=value"})
	require.Error(t, err)
}

func TestSortedKeys(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
