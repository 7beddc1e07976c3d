package i18n

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printerOnce sync.Once
	printer     *message.Printer
)

// T translates a key to a string. The first parameter identifies
// a message to translate. The second parameter is the default
// string to return if the key is not found.
func T(_ string, defaultValue string) string {
	return defaultValue
}

// Printer returns a message printer for the user's locale, derived from
// LC_ALL or LANG. Falls back to English.
func Printer() *message.Printer {
	printerOnce.Do(func() {
		printer = message.NewPrinter(localeTag())
	})
	return printer
}

// Count formats n followed by the singular or plural noun, using locale
// aware digit grouping.
func Count(n int, singular, plural string) string {
	noun := plural
	if n == 1 {
		noun = singular
	}
	return Printer().Sprintf("%d %s", n, noun)
}

func localeTag() language.Tag {
	for _, env := range []string{"LC_ALL", "LANG"} {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" || raw == "C" || raw == "POSIX" {
			continue
		}
		raw, _, _ = strings.Cut(raw, ".")
		raw = strings.ReplaceAll(raw, "_", "-")
		if tag, err := language.Parse(raw); err == nil {
			return tag
		}
	}
	return language.English
}
