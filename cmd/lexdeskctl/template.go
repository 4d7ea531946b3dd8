package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"lexdesk/internal/fieldtype"
	"lexdesk/internal/models"
)

// templateFile is the YAML layout of a local template.
type templateFile struct {
	Name     string      `yaml:"name"`
	Category string      `yaml:"category"`
	Body     string      `yaml:"body"`
	Fields   []fieldFile `yaml:"fields"`
}

type fieldFile struct {
	Key             string                  `yaml:"key"`
	Label           string                  `yaml:"label"`
	Type            models.FieldType        `yaml:"type"`
	Required        bool                    `yaml:"required"`
	Default         string                  `yaml:"default"`
	Options         models.FieldOptions     `yaml:"options"`
	ValidationRules *models.ValidationRules `yaml:"validation_rules"`
}

// loadTemplate reads and checks a template file. The result has no ID, so
// the engine never caches it.
func loadTemplate(path string) (*models.TemplateDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	var tf templateFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}

	t := &models.TemplateDefinition{
		Name:     tf.Name,
		Category: tf.Category,
		Body:     tf.Body,
		Version:  1,
	}
	for i, ff := range tf.Fields {
		f := models.FieldDefinition{
			Key:             ff.Key,
			Label:           ff.Label,
			Type:            ff.Type,
			IsRequired:      ff.Required,
			DefaultValue:    ff.Default,
			DisplayOrder:    i,
			Options:         ff.Options,
			ValidationRules: ff.ValidationRules,
		}
		fieldtype.Normalize(&f)
		t.Fields = append(t.Fields, f)
	}
	if err := fieldtype.CheckDefinitions(t.Fields); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return t, nil
}

// loadData reads a JSON object of field values. An empty path yields an
// empty map and "-" reads standard input.
func loadData(path string, stdin io.Reader) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open data: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	data := map[string]any{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse data: %w", err)
	}
	return data, nil
}
