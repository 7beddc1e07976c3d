package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Choice is one permitted value of a choice field.
type Choice struct {
	Value       any    `json:"value"`
	DisplayName string `json:"display_name"`
}

// Field is a field definition reported by an OPTIONS request.
type Field struct {
	// Name is the dotted path of the field.
	Name      string
	Type      string   `json:"type"`
	Label     string   `json:"label"`
	HelpText  string   `json:"help_text"`
	Default   any      `json:"default"`
	Value     any      `json:"value"`
	ReadOnly  bool     `json:"read_only"`
	Required  bool     `json:"required"`
	Choices   []Choice `json:"choices"`
	Model     string   `json:"model"`
	APIURL    string   `json:"api_url"`
	MaxLength int      `json:"max_length"`
	Children  []Field  `json:"-"`
}

// Options is a decoded OPTIONS response.
type Options struct {
	Name        string
	Description string
	actions     gjson.Result
}

// Methods lists the actions the server advertises, in response order.
func (o *Options) Methods() []string {
	var rv []string
	o.actions.ForEach(func(key, _ gjson.Result) bool {
		rv = append(rv, key.String())
		return true
	})
	return rv
}

// HasActions reports whether the response carries an actions object at all.
// Without one the server gave no field metadata, which is not a denial.
func (o *Options) HasActions() bool {
	return o.actions.IsObject()
}

// HasMethod reports whether method is among the advertised actions.
func (o *Options) HasMethod(method string) bool {
	return o.actions.Get(method).IsObject()
}

// Fields returns the field definitions of method in response order.
func (o *Options) Fields(method string) ([]Field, error) {
	actions := o.actions.Get(method)
	if !actions.IsObject() {
		return nil, nil
	}
	return decodeFields(actions, "")
}

func parseOptions(body []byte) (*Options, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("metadata response is not valid JSON")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("metadata response is not an object")
	}
	return &Options{
		Name:        parsed.Get("name").String(),
		Description: parsed.Get("description").String(),
		actions:     parsed.Get("actions"),
	}, nil
}

func decodeFields(obj gjson.Result, prefix string) ([]Field, error) {
	var rv []Field
	var decodeErr error
	obj.ForEach(func(key, value gjson.Result) bool {
		path := key.String()
		if prefix != "" {
			path = prefix + "." + path
		}

		var f Field
		if err := json.Unmarshal([]byte(value.Raw), &f); err != nil {
			decodeErr = fmt.Errorf("field %s: %w", path, err)
			return false
		}
		f.Name = path

		if children := value.Get("children"); children.IsObject() {
			f.Children, decodeErr = decodeFields(children, path)
			if decodeErr != nil {
				return false
			}
		}

		rv = append(rv, f)
		return true
	})
	return rv, decodeErr
}

// FlattenLabels maps every leaf field path to its label. Fields with children
// contribute their children instead of themselves.
func FlattenLabels(fields []Field) Labels {
	rv := Labels{}
	flattenInto(rv, fields)
	return rv
}

func flattenInto(dst Labels, fields []Field) {
	for _, f := range fields {
		if len(f.Children) > 0 {
			flattenInto(dst, f.Children)
			continue
		}
		if f.Label != "" {
			dst[f.Name] = f.Label
		}
	}
}
