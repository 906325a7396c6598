// Regenerates the JSON schemas embedded by the schema package from the
// document structs. Run from the repository root after changing a document
// type:
//
//	go run ./tools/schema-generator
package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/neteasedesktop/shell/internal/docstore"
)

func main() {
	targets := []struct {
		doc      interface{}
		file     string
		title    string
		required bool
	}{
		{&docstore.WindowGeometry{}, "window_settings.schema.json", "Window Settings Document", true},
		{&docstore.UserPreferences{}, "user_preferences.schema.json", "User Preferences Document", true},
		{&docstore.AudioRestartConfig{}, "pipewire_config.schema.json", "Audio Restart Config Document", false},
	}

	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		FieldNameTag:               "json",
	}

	for _, target := range targets {
		schema := r.Reflect(target.doc)
		schema.Title = target.title
		if !target.required {
			schema.Required = nil
		}

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			log.Fatalf("Error marshaling %s: %v", target.file, err)
		}
		data = append(data, '\n')

		path := filepath.Join("schema", target.file)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatalf("Error writing %s: %v", path, err)
		}
		log.Printf("Generated %s", path)
	}
}
