package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed manifest.schema.json
var schemaJSON string

// printer formats schema violation messages.
var printer = message.NewPrinter(language.English)

var manifestSchema = mustCompileSchema(schemaJSON, "manifest.schema.json")

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// violation is a single leaf schema error.
type violation struct {
	Location []string
	Message  string
}

func (v violation) String() string {
	return fmt.Sprintf("/%s: %s", strings.Join(v.Location, "/"), v.Message)
}

func validate(doc map[string]any) []violation {
	err := manifestSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []violation{{Message: fmt.Sprintf("schema: %v", err)}}
	}
	var out []violation
	collectViolations(ve, &out)
	return out
}

func collectViolations(ve *jsonschema.ValidationError, out *[]violation) {
	if len(ve.Causes) == 0 {
		*out = append(*out, violation{
			Location: ve.InstanceLocation,
			Message:  ve.ErrorKind.LocalizedString(printer),
		})
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}

// prune drops the value a violation points at so it decodes as absent. A bad
// icon entry removes only that entry, anything else removes the whole
// top-level field.
func prune(doc map[string]any, loc []string) {
	if len(loc) == 0 {
		return
	}
	if loc[0] == "icons" && len(loc) >= 2 {
		icons, ok := doc["icons"].([]any)
		if !ok {
			return
		}
		i, err := strconv.Atoi(loc[1])
		if err != nil || i < 0 || i >= len(icons) {
			return
		}
		icons[i] = nil
		return
	}
	delete(doc, loc[0])
}
