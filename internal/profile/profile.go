package profile

import (
	"errors"
	"sort"
	"strings"

	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/spf13/viper"
)

const (
	DefaultProfile = "default"
)

var (
	errorProfileExists       = errors.New("profile already exists")
	errorProfileNameEmpty    = errors.New("invalid profile name (empty)")
	errorProfileDoesNotExist = errors.New("profile does not exist")
)

type Manager interface {
	GetProfiles() []string
	GetProfile(name string) (map[string]any, error)
	CreateProfile(name string) error
}

type profileManager struct {
	config *viper.Viper
}

// Empty type to represent the _type_ Manager. Genesis is to support a key in a Context
type Key struct{}

// Global instance of the ProfileManagerKey type
var ProfileManagerKey = Key{}

// GetProfiles returns the sorted top level keys of the configuration.
func (v *profileManager) GetProfiles() []string {
	keyMap := make(map[string]bool)
	for _, key := range v.config.AllKeys() {
		topLevelKey, _, _ := strings.Cut(key, ".")
		keyMap[topLevelKey] = true
	}

	rv := make([]string, 0, len(keyMap))
	for key := range keyMap {
		rv = append(rv, key)
	}
	sort.Strings(rv)
	return rv
}

func (v *profileManager) CreateProfile(profileName string) error {
	if profileName == "" {
		return errorProfileNameEmpty
	}

	if v.config.IsSet(profileName) {
		return errorProfileExists
	}

	// An empty map is not kept by viper, so the profile starts with the default
	// output format.
	v.config.Set(profileName+"."+common.OutputConfigPath, common.DefaultOutputFormat)

	return nil
}

func (v *profileManager) GetProfile(name string) (map[string]any, error) {
	if !v.config.IsSet(name) {
		return nil, errorProfileDoesNotExist
	}
	return v.config.GetStringMap(name), nil
}

func NewManager(config *viper.Viper) Manager {
	return &profileManager{
		config: config,
	}
}
