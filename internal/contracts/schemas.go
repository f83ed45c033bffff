package contracts

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"listing-service/internal/core/domain"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed schemas
var schemasFS embed.FS

const resourceBase = "mem://listing-service/"

const (
	CreatePropertyRequest   = "CreatePropertyRequest"
	UpdatePropertyRequest   = "UpdatePropertyRequest"
	SearchPropertiesRequest = "SearchPropertiesRequest"
	PropertyLifecycleEvent  = "PropertyLifecycleEvent"

	Version1 = "1.0.0"
)

var compiledSchemas, loadErr = loadSchemas()

// loadSchemas сначала регистрирует все файлы как ресурсы (для $ref между ними),
// затем компилирует версионированные схемы
func loadSchemas() (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	compiler.AssertContent = true

	var paths []string
	err := fs.WalkDir(schemasFS, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := schemasFS.ReadFile(path)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path, "schemas/")
		if err := compiler.AddResource(resourceBase+rel, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to add schema resource %s: %w", rel, err)
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking schema resources: %w", err)
	}

	compiled := make(map[string]*jsonschema.Schema, len(paths))
	for _, rel := range paths {
		key := generateKeyFromPath(rel)
		if key == "" {
			continue // общие определения, не самостоятельная схема
		}
		schema, err := compiler.Compile(resourceBase + rel)
		if err != nil {
			return nil, fmt.Errorf("could not compile schema %s: %w", rel, err)
		}
		compiled[key] = schema
	}
	return compiled, nil
}

// generateKeyFromPath: "requests/create-property/v1.json" -> "CreatePropertyRequest/1.0.0",
// "events/property-lifecycle/v1.json" -> "PropertyLifecycleEvent/1.0.0"
func generateKeyFromPath(path string) string {
	parts := strings.Split(strings.TrimSuffix(path, ".json"), "/")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "v") {
		return ""
	}

	var suffix string
	switch parts[0] {
	case "requests":
		suffix = "Request"
	case "events":
		suffix = "Event"
	default:
		return ""
	}

	caser := cases.Title(language.English)
	var name strings.Builder
	for _, p := range strings.Split(parts[1], "-") {
		name.WriteString(caser.String(p))
	}
	name.WriteString(suffix)

	version := strings.TrimPrefix(parts[2], "v") + ".0.0"
	return fmt.Sprintf("%s/%s", name.String(), version)
}

func schemaFor(name, version string) (*jsonschema.Schema, error) {
	if loadErr != nil {
		return nil, loadErr
	}
	schema, ok := compiledSchemas[name+"/"+version]
	if !ok {
		return nil, fmt.Errorf("schema '%s' version '%s' not found", name, version)
	}
	return schema, nil
}

// ValidateRequest проверяет тело запроса. Любое несоответствие - domain.ErrValidationFailed.
func ValidateRequest(name string, body []byte) error {
	schema, err := schemaFor(name, Version1)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return domain.NewValidationError("body", "request body is not valid JSON")
	}
	return toValidationError(schema.Validate(v))
}

// ValidateValue проверяет уже собранное значение (например, параметры запроса)
func ValidateValue(name string, v interface{}) error {
	schema, err := schemaFor(name, Version1)
	if err != nil {
		return err
	}
	return toValidationError(schema.Validate(v))
}

// ValidateEvent проверяет исходящее сообщение перед публикацией
func ValidateEvent(eventType, eventVersion string, body []byte) error {
	schema, err := schemaFor(eventType, eventVersion)
	if err != nil {
		return err
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("message body is not a valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}

// toValidationError берет самую глубокую причину: у нее точный путь к полю
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var vErr *jsonschema.ValidationError
	if !errors.As(err, &vErr) {
		return domain.NewValidationError("body", err.Error())
	}

	leaf := vErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.ReplaceAll(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/", ".")
	if field == "" {
		field = "body"
	}
	return domain.NewValidationError(field, leaf.Message)
}
