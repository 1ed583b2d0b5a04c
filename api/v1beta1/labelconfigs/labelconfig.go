// Package labelconfigs provides the LabelConfig configuration type for
// autolabeler.
package labelconfigs

import (
	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/autolabeler/api/v1beta1"
	"github.com/macropower/autolabeler/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/main.go -o labelconfigs.v1beta1.json

var (
	//go:embed labelconfigs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for label configurations.
	ValidKinds = []string{"LabelConfig"}

	// DefaultValidator validates label configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/labelconfigs.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents one label configuration document. Labels holds the raw
// rule tree; it stays untyped because label names, prefix groups, and
// selector entries are user defined. Decoding through [yaml.Decoder] keeps
// the tree ordered.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	Labels           any `json:"labels" jsonschema:"title=Labels"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "LabelConfig",
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes unset fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = v1beta1.APIVersion
	}

	if c.Kind == "" {
		c.Kind = "LabelConfig"
	}
}

// JSONSchemaExtend constrains the apiVersion/kind enums and replaces the
// schema of the untyped rule tree with a recursive node definition.
func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)

	labels, ok := jss.Properties.Get("labels")
	if !ok {
		panic("labels property not found in schema")
	}

	labels.Ref = "#/$defs/LabelNode"
	labels.Type = ""

	_, _ = jss.Properties.Set("labels", labels)

	if jss.Definitions == nil {
		jss.Definitions = jsonschema.Definitions{}
	}

	jss.Definitions["LabelNode"] = labelNodeSchema()
}

// labelNodeSchema describes one node of the rule tree: either a label
// definition, a prefix group, or a scoping entry. Selector entries take
// arbitrary shapes, so additional properties stay open.
func labelNodeSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("color", &jsonschema.Schema{Type: "string", Title: "Color"})
	props.Set("description", &jsonschema.Schema{Type: "string", Title: "Description"})
	props.Set("if", &jsonschema.Schema{Type: "string", Title: "Condition"})
	props.Set("options", &jsonschema.Schema{Type: "object", Title: "Options"})
	props.Set("definitions", &jsonschema.Schema{Type: "string", Title: "Definitions"})

	actionProps := jsonschema.NewProperties()
	actionProps.Set("perform", &jsonschema.Schema{Type: "string"})
	actionProps.Set("comment", &jsonschema.Schema{Type: "string"})
	props.Set("action", &jsonschema.Schema{
		Type:       "object",
		Title:      "Action",
		Properties: actionProps,
	})

	return &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{
			{Type: "null"},
			{
				Type:       "object",
				Properties: props,
			},
		},
	}
}
