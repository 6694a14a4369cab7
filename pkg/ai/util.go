package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema creates a JSON Schema from the given Go type. The schema is
// self-contained (no $ref) and forbids additional properties, which is what
// strict structured-output modes expect.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// UnmarshalFlexible parses model output into the target with fallbacks:
// plain JSON first, then fence stripping, double-encoded strings, and
// finally jsonrepair for malformed output. The model is an untrusted
// structured-data producer; callers treat a returned error as a
// recoverable per-chunk failure.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	input = stripCodeFences(input)
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}

	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return nil
	}

	return fmt.Errorf(
		"unmarshal failed after repair: input=%s repaired=%s",
		input, repaired,
	)
}
