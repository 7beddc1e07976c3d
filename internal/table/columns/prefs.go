package columns

import (
	"fmt"

	"github.com/inventree/invctl/internal/config"
)

// HiddenConfigPath is where the hidden column set of a table key is stored.
func HiddenConfigPath(tableKey string) string {
	return fmt.Sprintf("tables.%s.hidden-columns", tableKey)
}

// LoadHidden reads the persisted hidden columns of a table key. ok is false when
// nothing was saved for it, in which case the declared defaults apply.
func LoadHidden(cfg config.Hook, tableKey string) (hidden []string, ok bool) {
	if cfg == nil || tableKey == "" {
		return nil, false
	}
	path := HiddenConfigPath(tableKey)
	if cfg.Get(path) == nil {
		return nil, false
	}
	return cfg.GetStringSlice(path), true
}

// SaveHidden persists the hidden switchable columns of cols.
func SaveHidden(cfg config.Hook, tableKey string, cols []Column) error {
	if cfg == nil || tableKey == "" {
		return nil
	}
	cfg.Set(HiddenConfigPath(tableKey), HiddenAccessors(cols))
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save column visibility for %s: %w", tableKey, err)
	}
	return nil
}
