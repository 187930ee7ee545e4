package schema

import "fmt"

// Database is the root container of an introspection session. Tables, views
// and commands are kept in fetch order and indexed by ObjectKey.
type Database struct {
	Name string
	// IncludeFunctions keeps void-returning routines in Commands results.
	IncludeFunctions bool

	Tables   []*Table
	Views    []*View
	Commands []*Command

	tableIdx   map[string]TableRef
	viewIdx    map[string]int
	commandIdx map[string]int
}

// NewDatabase creates an empty database model.
func NewDatabase(name string) *Database {
	return &Database{
		Name:       name,
		tableIdx:   make(map[string]TableRef),
		viewIdx:    make(map[string]int),
		commandIdx: make(map[string]int),
	}
}

// AddTable registers t and assigns its ref.
func (d *Database) AddTable(t *Table) error {
	key := ObjectKey(t.Schema, t.Name)
	if _, ok := d.tableIdx[key]; ok {
		return fmt.Errorf("%w: table %s", ErrDuplicate, key)
	}
	t.ref = TableRef(len(d.Tables))
	d.tableIdx[key] = t.ref
	d.Tables = append(d.Tables, t)
	return nil
}

// AddView registers v.
func (d *Database) AddView(v *View) error {
	key := ObjectKey(v.Schema, v.Name)
	if _, ok := d.viewIdx[key]; ok {
		return fmt.Errorf("%w: view %s", ErrDuplicate, key)
	}
	d.viewIdx[key] = len(d.Views)
	d.Views = append(d.Views, v)
	return nil
}

// AddCommand registers c under its specific name.
func (d *Database) AddCommand(c *Command) error {
	key := c.FullName()
	if _, ok := d.commandIdx[key]; ok {
		return fmt.Errorf("%w: routine %s", ErrDuplicate, key)
	}
	d.commandIdx[key] = len(d.Commands)
	d.Commands = append(d.Commands, c)
	return nil
}

// Lookup returns the ref of the named table.
func (d *Database) Lookup(schemaName, name string) (TableRef, bool) {
	ref, ok := d.tableIdx[ObjectKey(schemaName, name)]
	return ref, ok
}

// Table returns the named table, or nil.
func (d *Database) Table(schemaName, name string) *Table {
	ref, ok := d.Lookup(schemaName, name)
	if !ok {
		return nil
	}
	return d.Tables[ref]
}

// TableAt resolves a ref. It returns nil for NoTable or a stale ref.
func (d *Database) TableAt(ref TableRef) *Table {
	if ref < 0 || int(ref) >= len(d.Tables) {
		return nil
	}
	return d.Tables[ref]
}

// View returns the named view, or nil.
func (d *Database) View(schemaName, name string) *View {
	i, ok := d.viewIdx[ObjectKey(schemaName, name)]
	if !ok {
		return nil
	}
	return d.Views[i]
}

// Command returns the routine with the given specific name, or nil.
func (d *Database) Command(specificSchema, specificName string) *Command {
	i, ok := d.commandIdx[ObjectKey(specificSchema, specificName)]
	if !ok {
		return nil
	}
	return d.Commands[i]
}

// Column resolves a member column reference.
func (d *Database) Column(m MemberColumn) *Column {
	t := d.TableAt(m.Table)
	if t == nil || m.Column < 0 || m.Column >= len(t.Columns) {
		return nil
	}
	return t.Columns[m.Column]
}
