// Package resources is the registry of tables the CLI knows how to list.
package resources

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/inventree/invctl/internal/models"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/columns"
	"github.com/inventree/invctl/internal/table/query"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/internal/util"
	"gopkg.in/yaml.v3"
)

// ExtraTablesConfigPath holds user defined tables in the config file.
const ExtraTablesConfigPath = "tables.extra"

//go:embed tables.yaml
var builtinTables []byte

// ColumnSpec is a column as written in a resource file.
type ColumnSpec struct {
	Accessor   string `yaml:"accessor"`
	Title      string `yaml:"title,omitempty"`
	Kind       string `yaml:"kind,omitempty"`
	Required   bool   `yaml:"required,omitempty"`
	Sortable   bool   `yaml:"sortable,omitempty"`
	Switchable bool   `yaml:"switchable,omitempty"`
	Hidden     bool   `yaml:"hidden,omitempty"`
	Ordering   string `yaml:"ordering,omitempty"`
}

// ChoiceSpec is one value of a choice filter.
type ChoiceSpec struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// FilterSpec is a filter as written in a resource file.
type FilterSpec struct {
	Name        string       `yaml:"name"`
	Label       string       `yaml:"label,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Type        string       `yaml:"type,omitempty"`
	Choices     []ChoiceSpec `yaml:"choices,omitempty"`
}

// Resource is a listable table.
type Resource struct {
	Name        string            `yaml:"name"`
	Aliases     []string          `yaml:"aliases,omitempty"`
	Description string            `yaml:"description,omitempty"`
	TableKey    string            `yaml:"table-key"`
	Endpoint    string            `yaml:"endpoint"`
	Model       string            `yaml:"model,omitempty"`
	RowActions  bool              `yaml:"row-actions,omitempty"`
	Base        map[string]string `yaml:"base,omitempty"`
	Columns     []ColumnSpec      `yaml:"columns"`
	Filters     []FilterSpec      `yaml:"filters,omitempty"`
}

type document struct {
	Tables []Resource `yaml:"tables"`
}

// Registry resolves resource names and aliases.
type Registry struct {
	resources map[string]Resource
	aliases   map[string]string
}

// Builtin returns the registry of the embedded table definitions.
func Builtin() (*Registry, error) {
	r := &Registry{resources: map[string]Resource{}, aliases: map[string]string{}}
	if err := r.LoadYAML(builtinTables); err != nil {
		return nil, fmt.Errorf("invalid builtin tables: %w", err)
	}
	return r, nil
}

// LoadYAML adds the tables of a resource document. Later definitions replace
// earlier ones with the same name.
func (r *Registry) LoadYAML(data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	return r.Add(doc.Tables...)
}

// LoadConfigValue adds tables configured under tables.extra. The value is what
// the config layer returns for that key.
func (r *Registry) LoadConfigValue(v any) error {
	if v == nil {
		return nil
	}
	data, err := yaml.Marshal(map[string]any{"tables": v})
	if err != nil {
		return fmt.Errorf("invalid %s: %w", ExtraTablesConfigPath, err)
	}
	if err := r.LoadYAML(data); err != nil {
		return fmt.Errorf("invalid %s: %w", ExtraTablesConfigPath, err)
	}
	return nil
}

// Add validates and registers resources.
func (r *Registry) Add(resources ...Resource) error {
	for _, res := range resources {
		if err := res.validate(); err != nil {
			return err
		}
		name := strings.ToLower(res.Name)
		r.resources[name] = res
		r.aliases[name] = name
		for _, a := range res.Aliases {
			r.aliases[strings.ToLower(a)] = name
		}
	}
	return nil
}

// Lookup resolves a name or alias.
func (r *Registry) Lookup(name string) (Resource, bool) {
	canonical, ok := r.aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Resource{}, false
	}
	res, ok := r.resources[canonical]
	return res, ok
}

// Names returns the canonical resource names, sorted.
func (r *Registry) Names() []string {
	return util.SortedKeys(r.resources)
}

// Resources returns all resources sorted by name.
func (r *Registry) Resources() []Resource {
	rv := make([]Resource, 0, len(r.resources))
	for _, res := range r.resources {
		rv = append(rv, res)
	}
	sort.Slice(rv, func(i, j int) bool { return rv[i].Name < rv[j].Name })
	return rv
}

func (res Resource) validate() error {
	switch {
	case res.Name == "":
		return fmt.Errorf("table definition without a name")
	case res.Endpoint == "":
		return fmt.Errorf("table %s has no endpoint", res.Name)
	case len(res.Columns) == 0:
		return fmt.Errorf("table %s has no columns", res.Name)
	}
	if res.Model != "" {
		if _, ok := models.Lookup(models.ModelType(res.Model)); !ok {
			return fmt.Errorf("table %s has unknown model %q", res.Name, res.Model)
		}
	}
	for _, c := range res.Columns {
		if c.Accessor == "" {
			return fmt.Errorf("table %s has a column without an accessor", res.Name)
		}
		if _, err := record.KindFromString(c.Kind); err != nil {
			return fmt.Errorf("table %s column %s: %w", res.Name, c.Accessor, err)
		}
	}
	if len(res.Base) > 0 {
		if _, err := query.EncodeBase(res.Base); err != nil {
			return fmt.Errorf("table %s: %w", res.Name, err)
		}
	}
	for _, f := range res.Filters {
		if f.Name == "" {
			return fmt.Errorf("table %s has a filter without a name", res.Name)
		}
		if !isKnownFilterType(f.Type) {
			return fmt.Errorf("table %s filter %s has unknown type %q", res.Name, f.Name, f.Type)
		}
	}
	return nil
}

func isKnownFilterType(t string) bool {
	switch columns.FilterType(t) {
	case columns.FilterBoolean, columns.FilterChoice, columns.FilterDate, columns.FilterText, "":
		return true
	}
	return false
}

// Key returns the table key, defaulting to the resource name.
func (res Resource) Key() string {
	if res.TableKey != "" {
		return res.TableKey
	}
	return res.Name
}

// Definition converts the resource into a grid definition.
func (res Resource) Definition() table.Definition {
	def := table.Definition{
		Name:       res.Name,
		TableKey:   res.Key(),
		Endpoint:   res.Endpoint,
		Model:      models.ModelType(res.Model),
		RowActions: res.RowActions,
	}

	if len(res.Base) > 0 {
		// validate rejects bases that do not encode.
		def.Base, _ = query.EncodeBase(res.Base)
	}

	for _, c := range res.Columns {
		kind, _ := record.KindFromString(c.Kind)
		if kind != record.KindAny || c.Required {
			def.Schema.Columns = append(def.Schema.Columns, record.Column{Name: c.Accessor, Kind: kind, Required: c.Required})
		}
		def.Columns = append(def.Columns, columns.Column{
			Accessor:   c.Accessor,
			Title:      c.Title,
			Sortable:   c.Sortable,
			Switchable: c.Switchable,
			Hidden:     c.Hidden,
			Ordering:   c.Ordering,
		})
	}

	for _, f := range res.Filters {
		filter := columns.Filter{
			Name:        f.Name,
			Label:       f.Label,
			Description: f.Description,
			Type:        columns.FilterType(f.Type),
		}
		if filter.Type == "" {
			filter.Type = columns.FilterText
		}
		for _, c := range f.Choices {
			filter.Choices = append(filter.Choices, columns.Choice{Value: c.Value, Label: c.Label})
		}
		def.Filters = append(def.Filters, filter)
	}

	return def
}
