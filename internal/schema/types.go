package schema

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned when an entity name is registered twice in the same scope.
var ErrDuplicate = errors.New("duplicate name")

// TableRef is a handle into Database.Tables.
type TableRef int

// NoTable is the ref of a table that has not been added to a Database.
const NoTable TableRef = -1

// Column represents a table or view column.
type Column struct {
	Name       string
	Ordinal    int // catalog ordinal position (1-based)
	Type       DbType
	NativeType string // udt name, arrays normalized to "base[]"
	IsArray    bool
	Size       int
	Precision  int
	Scale      int
	Nullable   bool
	Default    string // empty when the default is a sequence
	IsIdentity bool
	Properties Properties
}

// MemberColumn references a column participating in an index or key.
// Column is the position in the owning table's Columns slice.
type MemberColumn struct {
	Table  TableRef
	Column int
	Name   string
}

// Index represents a table index aggregated from one catalog row per member.
type Index struct {
	Schema    string
	Table     string
	Name      string
	IsPrimary bool
	IsUnique  bool
	Clustered bool
	Members   []MemberColumn
}

// Key returns the composite identity of the index.
func (i *Index) Key() string {
	return MemberKey(i.Schema, i.Table, i.Name)
}

// PrimaryKey is derived from the table's primary index.
type PrimaryKey struct {
	Name    string
	Members []MemberColumn
}

// TableKey represents a foreign key constraint. The primary side lives in the
// referenced table, the foreign side in the referencing table.
type TableKey struct {
	Name           string
	ForeignTable   TableRef
	PrimaryTable   TableRef
	ForeignMembers []MemberColumn
	PrimaryMembers []MemberColumn
	CascadeDelete  bool
	CascadeUpdate  bool
	Properties     Properties
}

// Table represents a base table. Columns are in ordinal order.
type Table struct {
	Schema     string
	Name       string
	Columns    []*Column
	Indexes    []*Index
	Keys       []*TableKey
	PrimaryKey *PrimaryKey

	ref    TableRef
	colIdx map[string]int
}

// NewTable creates a table that is not yet part of a Database.
func NewTable(schemaName, name string) *Table {
	return &Table{Schema: schemaName, Name: name, ref: NoTable}
}

// Ref returns the table's handle, or NoTable if it was never added to a Database.
func (t *Table) Ref() TableRef { return t.ref }

// FullName returns the quoted schema-qualified table name.
func (t *Table) FullName() string { return ObjectKey(t.Schema, t.Name) }

// SetColumns replaces the table columns. Names must be unique and ordinals
// strictly increasing.
func (t *Table) SetColumns(cols []*Column) error {
	idx, err := indexColumns(t.FullName(), cols)
	if err != nil {
		return err
	}
	t.Columns = cols
	t.colIdx = idx
	return nil
}

// ColumnIndex returns the position of the named column in t.Columns. It also
// resolves columns assigned directly to the field instead of via SetColumns.
func (t *Table) ColumnIndex(name string) (int, bool) {
	return lookupColumn(t.Columns, t.colIdx, name)
}

// Member builds a member column reference for the named column.
func (t *Table) Member(name string) (MemberColumn, bool) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return MemberColumn{}, false
	}
	return MemberColumn{Table: t.ref, Column: i, Name: name}, true
}

// ColumnNames returns all column names in ordinal order.
func (t *Table) ColumnNames() []string {
	return columnNames(t.Columns)
}

// View represents a database view.
type View struct {
	Schema  string
	Name    string
	Columns []*Column
	Text    string

	colIdx map[string]int
}

// FullName returns the quoted schema-qualified view name.
func (v *View) FullName() string { return ObjectKey(v.Schema, v.Name) }

// SetColumns replaces the view columns with the same rules as Table.SetColumns.
func (v *View) SetColumns(cols []*Column) error {
	idx, err := indexColumns(v.FullName(), cols)
	if err != nil {
		return err
	}
	v.Columns = cols
	v.colIdx = idx
	return nil
}

// ColumnIndex returns the position of the named column in v.Columns.
func (v *View) ColumnIndex(name string) (int, bool) {
	return lookupColumn(v.Columns, v.colIdx, name)
}

// ColumnNames returns all column names in ordinal order.
func (v *View) ColumnNames() []string {
	return columnNames(v.Columns)
}

// Direction is the mode of a routine parameter.
type Direction int

const (
	Input Direction = iota
	Output
	InputOutput
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	default:
		return "inout"
	}
}

// Parameter is a routine parameter.
type Parameter struct {
	Name       string
	Ordinal    int
	Direction  Direction
	Type       DbType
	NativeType string
	IsArray    bool
	Size       int
	Precision  int
	Scale      int
	Properties Properties
}

// Command represents a routine (function or procedure). Overloads share
// Schema and Name but not SpecificName.
type Command struct {
	Schema         string
	Name           string
	SpecificSchema string
	SpecificName   string
	Kind           string
	ReturnType     string
	Parameters     []*Parameter
	Text           string
	Properties     Properties
}

// FullName returns the quoted name of the routine overload.
func (c *Command) FullName() string { return ObjectKey(c.SpecificSchema, c.SpecificName) }

// IsVoid reports whether the routine returns no result.
func (c *Command) IsVoid() bool { return isVoidType(c.ReturnType) }

func indexColumns(owner string, cols []*Column) (map[string]int, error) {
	idx := make(map[string]int, len(cols))
	prev := 0
	for i, c := range cols {
		if _, ok := idx[c.Name]; ok {
			return nil, fmt.Errorf("%w: column %q in %s", ErrDuplicate, c.Name, owner)
		}
		if i > 0 && c.Ordinal <= prev {
			return nil, fmt.Errorf("column %q in %s: ordinal %d out of order", c.Name, owner, c.Ordinal)
		}
		prev = c.Ordinal
		idx[c.Name] = i
	}
	return idx, nil
}

// lookupColumn trusts idx only while it still agrees with cols, and scans
// otherwise.
func lookupColumn(cols []*Column, idx map[string]int, name string) (int, bool) {
	if i, ok := idx[name]; ok && len(idx) == len(cols) && i < len(cols) && cols[i].Name == name {
		return i, true
	}
	for i, c := range cols {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

func columnNames(cols []*Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
