package config

import (
	"github.com/invopop/jsonschema"
)

// Schema reflects the JSON schema of the config file format, for editor
// completion and the schema subcommand.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{}
	schema := r.Reflect(&Config{})
	schema.ID = "https://github.com/rowpane/rowpane/raw/main/schema.json"
	schema.Title = "Rowpane Configuration"
	schema.Description = "Configuration schema for rowpane data browser"
	return schema
}
