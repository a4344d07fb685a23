package config

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/stoewer/go-strcase"
)

// Schema returns the JSON schema of the YAML configuration file.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
	}

	// field comments are not available at runtime, so they are listed here
	r.CommentMap = map[string]string{
		"github.com/surveygraph/graph/internal/config.Config":             "Configuration of a graph run.",
		"github.com/surveygraph/graph/internal/config.Config.SourceURL":   "URL of the CSV export to download when the data file is missing.",
		"github.com/surveygraph/graph/internal/config.Config.DataFile":    "Local cache of the CSV export. An existing file is used as is.",
		"github.com/surveygraph/graph/internal/config.Config.OutputDir":   "Directory receiving one chart per question.",
		"github.com/surveygraph/graph/internal/config.Config.Questions":   "Question slugs to process; empty means the whole catalog.",
		"github.com/surveygraph/graph/internal/config.Config.Parallelism": "Number of charts rendered at the same time.",
		"github.com/surveygraph/graph/internal/config.Config.HTTPTimeout": "Timeout of a single download attempt, in nanoseconds or as a duration string.",
		"github.com/surveygraph/graph/internal/config.Config.Retry":       "Download retry policy.",
	}

	schema := r.Reflect(&Config{})
	return json.MarshalIndent(schema, "", "  ")
}
