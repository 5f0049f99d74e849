package schema

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// SupportedDocumentVersions is the range of mapping document versions LoadYAML accepts.
const SupportedDocumentVersions = ">= 1.0, < 2.0"

// Document is the YAML form of a mapping document.
type Document struct {
	// Version of the document format, e.g. "1.0".
	Version  string           `yaml:"version"`
	Entities []EntityDocument `yaml:"entities"`
}

// EntityDocument describes one entity in a mapping document.
type EntityDocument struct {
	Name         string                `yaml:"name"`
	Table        string                `yaml:"table,omitempty"`
	Fields       []FieldDocument       `yaml:"fields"`
	Associations []AssociationDocument `yaml:"associations,omitempty"`
}

// FieldDocument describes one field.
type FieldDocument struct {
	Name     string `yaml:"name"`
	Column   string `yaml:"column,omitempty"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable,omitempty"`
	ID       bool   `yaml:"id,omitempty"`
}

// AssociationDocument describes one association.
type AssociationDocument struct {
	Name         string `yaml:"name"`
	Target       string `yaml:"target"`
	Kind         string `yaml:"kind"`
	LocalColumn  string `yaml:"localColumn"`
	TargetColumn string `yaml:"targetColumn"`
}

// LoadYAML reads a mapping document and returns a validated registry.
// Unknown keys are rejected.
func LoadYAML(r io.Reader) (*MetadataRegistry, error) {
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse mapping document: %w", err)
	}

	if err := checkDocumentVersion(doc.Version); err != nil {
		return nil, err
	}

	entities := make([]Entity, 0, len(doc.Entities))
	names := make(map[string]bool, len(doc.Entities))
	for i, ed := range doc.Entities {
		if ed.Name == "" {
			return nil, fmt.Errorf("entities[%d]: name is required", i)
		}
		if names[ed.Name] {
			return nil, fmt.Errorf("entities[%d]: duplicate entity %s", i, ed.Name)
		}
		names[ed.Name] = true

		e, err := ed.toEntity()
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", ed.Name, err)
		}
		entities = append(entities, e)
	}

	registry := NewMetadataRegistry()
	if err := registry.Register(entities...); err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

func checkDocumentVersion(raw string) error {
	if raw == "" {
		return fmt.Errorf("mapping document version is required")
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("invalid mapping document version: %w", err)
	}
	constraint, err := version.NewConstraint(SupportedDocumentVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("mapping document version %s is not supported (want %s)", v, SupportedDocumentVersions)
	}
	return nil
}

func (ed EntityDocument) toEntity() (Entity, error) {
	e := Entity{Name: ed.Name, Table: ed.Table}
	for _, fd := range ed.Fields {
		if fd.Name == "" {
			return Entity{}, fmt.Errorf("field name is required")
		}
		t, err := domain.ParseLogicalType(fd.Type)
		if err != nil {
			return Entity{}, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		e.Fields = append(e.Fields, Field{
			Name:     fd.Name,
			Column:   fd.Column,
			Type:     t,
			Nullable: fd.Nullable,
			ID:       fd.ID,
		})
	}
	for _, ad := range ed.Associations {
		kind := AssociationKind(ad.Kind)
		switch kind {
		case OneToOne, ManyToOne, OneToMany:
		default:
			return Entity{}, fmt.Errorf("association %s: unknown kind %q", ad.Name, ad.Kind)
		}
		e.Associations = append(e.Associations, Association{
			Name:         ad.Name,
			Target:       ad.Target,
			Kind:         kind,
			LocalColumn:  ad.LocalColumn,
			TargetColumn: ad.TargetColumn,
		})
	}
	return e, nil
}
