package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLocaleTag(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "de_DE.UTF-8")
	require.Equal(t, language.MustParse("de-DE"), localeTag())

	t.Setenv("LANG", "C")
	require.Equal(t, language.English, localeTag())
}

func TestT(t *testing.T) {
	require.Equal(t, "fallback", T("some.key", "fallback"))
}
