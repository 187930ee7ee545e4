package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

// Document is a serializable rendering of a Database with member references
// resolved to column and table names.
type Document struct {
	Database string       `json:"database" yaml:"database"`
	Tables   []TableDoc   `json:"tables" yaml:"tables"`
	Views    []ViewDoc    `json:"views" yaml:"views"`
	Commands []CommandDoc `json:"commands" yaml:"commands"`
}

type ColumnDoc struct {
	Name       string            `json:"name" yaml:"name"`
	Ordinal    int               `json:"ordinal" yaml:"ordinal"`
	Type       string            `json:"type" yaml:"type"`
	NativeType string            `json:"native_type" yaml:"native_type"`
	IsArray    bool              `json:"is_array,omitempty" yaml:"is_array,omitempty"`
	Size       int               `json:"size,omitempty" yaml:"size,omitempty"`
	Precision  int               `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale      int               `json:"scale,omitempty" yaml:"scale,omitempty"`
	Nullable   bool              `json:"nullable" yaml:"nullable"`
	Default    string            `json:"default,omitempty" yaml:"default,omitempty"`
	Identity   bool              `json:"identity,omitempty" yaml:"identity,omitempty"`
	Properties schema.Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
}

type IndexDoc struct {
	Name      string   `json:"name" yaml:"name"`
	Primary   bool     `json:"primary,omitempty" yaml:"primary,omitempty"`
	Unique    bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Clustered bool     `json:"clustered,omitempty" yaml:"clustered,omitempty"`
	Columns   []string `json:"columns" yaml:"columns"`
}

type PrimaryKeyDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}

type ForeignKeyDoc struct {
	Name              string   `json:"name" yaml:"name"`
	Columns           []string `json:"columns" yaml:"columns"`
	References        string   `json:"references" yaml:"references"`
	ReferencedColumns []string `json:"referenced_columns" yaml:"referenced_columns"`
	CascadeDelete     bool     `json:"cascade_delete,omitempty" yaml:"cascade_delete,omitempty"`
	CascadeUpdate     bool     `json:"cascade_update,omitempty" yaml:"cascade_update,omitempty"`
}

type TableDoc struct {
	Schema      string          `json:"schema" yaml:"schema"`
	Name        string          `json:"name" yaml:"name"`
	Columns     []ColumnDoc     `json:"columns" yaml:"columns"`
	PrimaryKey  *PrimaryKeyDoc  `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Indexes     []IndexDoc      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKeyDoc `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
}

type ViewDoc struct {
	Schema     string      `json:"schema" yaml:"schema"`
	Name       string      `json:"name" yaml:"name"`
	Columns    []ColumnDoc `json:"columns" yaml:"columns"`
	Definition string      `json:"definition,omitempty" yaml:"definition,omitempty"`
}

type ParameterDoc struct {
	Name       string `json:"name" yaml:"name"`
	Ordinal    int    `json:"ordinal" yaml:"ordinal"`
	Direction  string `json:"direction" yaml:"direction"`
	Type       string `json:"type" yaml:"type"`
	NativeType string `json:"native_type" yaml:"native_type"`
	IsArray    bool   `json:"is_array,omitempty" yaml:"is_array,omitempty"`
}

type CommandDoc struct {
	Schema       string            `json:"schema" yaml:"schema"`
	Name         string            `json:"name" yaml:"name"`
	SpecificName string            `json:"specific_name" yaml:"specific_name"`
	Kind         string            `json:"kind" yaml:"kind"`
	Returns      string            `json:"returns,omitempty" yaml:"returns,omitempty"`
	Parameters   []ParameterDoc    `json:"parameters" yaml:"parameters"`
	Definition   string            `json:"definition,omitempty" yaml:"definition,omitempty"`
	Properties   schema.Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// BuildDocument renders db. Tables excluded by name are left out.
func BuildDocument(db *schema.Database, exclude map[string]bool) *Document {
	doc := &Document{
		Database: db.Name,
		Tables:   []TableDoc{},
		Views:    []ViewDoc{},
		Commands: []CommandDoc{},
	}
	for _, t := range db.Tables {
		if exclude[t.Name] {
			continue
		}
		doc.Tables = append(doc.Tables, TableDocument(db, t))
	}
	for _, v := range db.Views {
		doc.Views = append(doc.Views, ViewDocument(v))
	}
	for _, c := range db.Commands {
		doc.Commands = append(doc.Commands, CommandDocument(c))
	}
	return doc
}

// TableDocument renders one table. Foreign keys resolve their referenced
// table through db.
func TableDocument(db *schema.Database, t *schema.Table) TableDoc {
	td := TableDoc{Schema: t.Schema, Name: t.Name, Columns: ColumnDocs(t.Columns)}
	if t.PrimaryKey != nil {
		td.PrimaryKey = &PrimaryKeyDoc{Name: t.PrimaryKey.Name, Columns: MemberNames(t.PrimaryKey.Members)}
	}
	for _, idx := range t.Indexes {
		td.Indexes = append(td.Indexes, IndexDocument(idx))
	}
	for _, k := range t.Keys {
		td.ForeignKeys = append(td.ForeignKeys, ForeignKeyDocument(db, k))
	}
	return td
}

func IndexDocument(idx *schema.Index) IndexDoc {
	return IndexDoc{
		Name:      idx.Name,
		Primary:   idx.IsPrimary,
		Unique:    idx.IsUnique,
		Clustered: idx.Clustered,
		Columns:   MemberNames(idx.Members),
	}
}

func ForeignKeyDocument(db *schema.Database, k *schema.TableKey) ForeignKeyDoc {
	ref := ""
	if pt := db.TableAt(k.PrimaryTable); pt != nil {
		ref = pt.Schema + "." + pt.Name
	}
	return ForeignKeyDoc{
		Name:              k.Name,
		Columns:           MemberNames(k.ForeignMembers),
		References:        ref,
		ReferencedColumns: MemberNames(k.PrimaryMembers),
		CascadeDelete:     k.CascadeDelete,
		CascadeUpdate:     k.CascadeUpdate,
	}
}

func ViewDocument(v *schema.View) ViewDoc {
	return ViewDoc{Schema: v.Schema, Name: v.Name, Columns: ColumnDocs(v.Columns), Definition: v.Text}
}

func CommandDocument(c *schema.Command) CommandDoc {
	return CommandDoc{
		Schema:       c.Schema,
		Name:         c.Name,
		SpecificName: c.SpecificName,
		Kind:         c.Kind,
		Returns:      c.ReturnType,
		Parameters:   ParameterDocs(c.Parameters),
		Definition:   c.Text,
		Properties:   c.Properties,
	}
}

func ColumnDocs(cols []*schema.Column) []ColumnDoc {
	out := make([]ColumnDoc, len(cols))
	for i, c := range cols {
		out[i] = ColumnDoc{
			Name:       c.Name,
			Ordinal:    c.Ordinal,
			Type:       c.Type.String(),
			NativeType: c.NativeType,
			IsArray:    c.IsArray,
			Size:       c.Size,
			Precision:  c.Precision,
			Scale:      c.Scale,
			Nullable:   c.Nullable,
			Default:    c.Default,
			Identity:   c.IsIdentity,
			Properties: c.Properties,
		}
	}
	return out
}

func ParameterDocs(params []*schema.Parameter) []ParameterDoc {
	out := make([]ParameterDoc, len(params))
	for i, p := range params {
		out[i] = ParameterDoc{
			Name:       p.Name,
			Ordinal:    p.Ordinal,
			Direction:  p.Direction.String(),
			Type:       p.Type.String(),
			NativeType: p.NativeType,
			IsArray:    p.IsArray,
		}
	}
	return out
}

// MemberNames returns the column names of member references in order.
func MemberNames(members []schema.MemberColumn) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

// WriteYAML encodes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
