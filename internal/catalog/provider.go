package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

var (
	// ErrUnsupported is returned for operations the catalog cannot perform.
	ErrUnsupported = errors.New("operation not supported")
	// ErrUnresolvedTable is returned in strict mode when a foreign key
	// references a table missing from the Database.
	ErrUnresolvedTable = errors.New("unresolved referenced table")
	// ErrUnresolvedColumn is returned in strict mode when an index or key
	// member does not name a column of its table.
	ErrUnresolvedColumn = errors.New("unresolved member column")
)

// Object is any model entity that can carry extended properties.
type Object interface {
	FullName() string
}

// SchemaProvider is the fixed set of operations a code-generation host calls.
// Hosts must fetch in dependency order: tables and their columns, then
// indexes, then foreign keys.
type SchemaProvider interface {
	Name() string
	Description() string
	DatabaseName(descriptor string) string

	Tables(ctx context.Context, db *schema.Database) ([]*schema.Table, error)
	TableColumns(ctx context.Context, t *schema.Table) ([]*schema.Column, error)
	TableIndexes(ctx context.Context, t *schema.Table) ([]*schema.Index, error)
	TableKeys(ctx context.Context, db *schema.Database, t *schema.Table) ([]*schema.TableKey, error)
	TablePrimaryKey(ctx context.Context, t *schema.Table) (*schema.PrimaryKey, error)
	TableData(ctx context.Context, t *schema.Table) (*DataTable, error)

	Views(ctx context.Context, db *schema.Database) ([]*schema.View, error)
	ViewColumns(ctx context.Context, v *schema.View) ([]*schema.Column, error)
	ViewText(ctx context.Context, v *schema.View) (string, error)
	ViewData(ctx context.Context, v *schema.View) (*DataTable, error)

	Commands(ctx context.Context, db *schema.Database) ([]*schema.Command, error)
	CommandParameters(ctx context.Context, c *schema.Command) ([]*schema.Parameter, error)
	CommandText(ctx context.Context, c *schema.Command) (string, error)
	CommandResults(ctx context.Context, c *schema.Command) ([]*schema.Column, error)

	ExtendedProperties(ctx context.Context, obj Object) (schema.Properties, error)
	SetExtendedProperties(ctx context.Context, obj Object) error
}

// Options configures a Provider.
type Options struct {
	// Schemas restricts tables, views and routines to these schemas. Empty
	// means every non-system schema.
	Schemas []string
	// StrictKeys turns silently dropped references into errors.
	StrictKeys bool
	// Logger receives skipped-reference notices. Nil discards them.
	Logger *log.Logger
}

// Provider implements SchemaProvider on top of a RowSource.
type Provider struct {
	src     RowSource
	schemas []string
	strict  bool
	log     *log.Logger
}

var _ SchemaProvider = (*Provider)(nil)

// New creates a Provider reading from src.
func New(src RowSource, opts Options) *Provider {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	schemas := opts.Schemas
	if schemas == nil {
		schemas = []string{}
	}
	return &Provider{
		src:     src,
		schemas: schemas,
		strict:  opts.StrictKeys,
		log:     logger,
	}
}

func (p *Provider) Name() string        { return "PostgreSQLSchemaProvider" }
func (p *Provider) Description() string { return "PostgreSQL Schema Provider" }

var reDatabase = regexp.MustCompile(`(?i)Database\W*=\W*([^;]*)`)

// DatabaseName extracts the Database= value from a connection descriptor,
// returning the descriptor unchanged when there is none.
func (p *Provider) DatabaseName(descriptor string) string {
	return DatabaseName(descriptor)
}

// DatabaseName is the package-level form of Provider.DatabaseName.
func DatabaseName(descriptor string) string {
	if m := reDatabase.FindStringSubmatch(descriptor); m != nil {
		return m[1]
	}
	return descriptor
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func (p *Provider) Tables(ctx context.Context, db *schema.Database) ([]*schema.Table, error) {
	rows, err := p.src.Query(ctx, queryTables, p.schemas)
	if err != nil {
		return nil, err
	}
	tables := make([]*schema.Table, 0, len(rows))
	for _, r := range rows {
		tables = append(tables, schema.NewTable(r.String("table_schema"), r.String("table_name")))
	}
	return tables, nil
}

func (p *Provider) TableColumns(ctx context.Context, t *schema.Table) ([]*schema.Column, error) {
	rows, err := p.src.Query(ctx, queryColumns, t.Schema, t.Name)
	if err != nil {
		return nil, err
	}
	cols := make([]*schema.Column, 0, len(rows))
	for _, r := range rows {
		col := columnFromRow(r)
		col.IsIdentity = schema.IsSequenceDefault(t.Name, col.Name, col.Default)
		if col.IsIdentity {
			col.Default = ""
		}
		dataType := r.String("data_type")
		col.Properties = schema.Properties{
			schema.StringProperty(schema.PropDefault, col.Default),
			schema.BoolProperty(schema.PropIsIdentity, col.IsIdentity),
			schema.StringProperty(schema.PropSystemType, dataType),
			schema.StringProperty(schema.PropUserDefinedType, dataType),
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (p *Provider) TableIndexes(ctx context.Context, t *schema.Table) ([]*schema.Index, error) {
	rows, err := p.src.Query(ctx, queryIndexes, t.Schema, t.Name)
	if err != nil {
		return nil, err
	}

	agg := NewAggregator[schema.Index]()
	for _, r := range rows {
		tableSchema, tableName, name := r.String("table_schema"), r.String("table_name"), r.String("index_name")
		idx := agg.Fold(schema.MemberKey(tableSchema, tableName, name), func() *schema.Index {
			return &schema.Index{
				Schema:    tableSchema,
				Table:     tableName,
				Name:      name,
				IsPrimary: r.Bool("is_primary"),
				IsUnique:  r.Bool("is_unique"),
				Clustered: r.Bool("is_clustered"),
			}
		})

		colName := r.String("column_name")
		m, ok := t.Member(colName)
		if !ok {
			if err := p.unresolvedColumn(t.FullName(), name, colName); err != nil {
				return nil, err
			}
			continue
		}
		idx.Members = append(idx.Members, m)
	}
	return withMembers(agg.Entities(), func(i *schema.Index) int { return len(i.Members) }), nil
}

// TablePrimaryKey derives the primary key from the first primary index in
// t.Indexes. It issues no query and returns nil when there is none.
func (p *Provider) TablePrimaryKey(_ context.Context, t *schema.Table) (*schema.PrimaryKey, error) {
	for _, idx := range t.Indexes {
		if !idx.IsPrimary {
			continue
		}
		pk := &schema.PrimaryKey{Name: idx.Name, Members: make([]schema.MemberColumn, len(idx.Members))}
		copy(pk.Members, idx.Members)
		return pk, nil
	}
	return nil, nil
}

// TableKeys aggregates the foreign keys of t. A row whose referenced table is
// not in db contributes nothing: the key is dropped, or rejected with
// ErrUnresolvedTable in strict mode.
func (p *Provider) TableKeys(ctx context.Context, db *schema.Database, t *schema.Table) ([]*schema.TableKey, error) {
	rows, err := p.src.Query(ctx, queryForeignKeys, t.Schema, t.Name)
	if err != nil {
		return nil, err
	}

	agg := NewAggregator[schema.TableKey]()
	dropped := make(map[string]bool)
	for _, r := range rows {
		name := r.String("constraint_name")
		refSchema, refTable := r.String("reference_table_schema"), r.String("reference_table_name")

		ref, ok := db.Lookup(refSchema, refTable)
		if !ok {
			if p.strict {
				return nil, fmt.Errorf("%w: %s referenced by %s on %s",
					ErrUnresolvedTable, schema.ObjectKey(refSchema, refTable), name, t.FullName())
			}
			if !dropped[name] {
				dropped[name] = true
				p.log.Printf("skipping foreign key %s on %s: table %s is not in the model",
					name, t.FullName(), schema.ObjectKey(refSchema, refTable))
			}
			continue
		}
		primary := db.TableAt(ref)

		key := schema.TableKeyKey(refSchema, refTable, name, r.String("table_schema"), r.String("table_name"))
		fk := agg.Fold(key, func() *schema.TableKey {
			cascadeDelete := r.String("on_delete") == "c"
			cascadeUpdate := r.String("on_update") == "c"
			return &schema.TableKey{
				Name:          name,
				ForeignTable:  t.Ref(),
				PrimaryTable:  ref,
				CascadeDelete: cascadeDelete,
				CascadeUpdate: cascadeUpdate,
				Properties: schema.Properties{
					schema.BoolProperty(schema.PropCascadeDelete, cascadeDelete),
					schema.BoolProperty(schema.PropCascadeUpdate, cascadeUpdate),
				},
			}
		})

		refCol, col := r.String("reference_column_name"), r.String("column_name")
		pm, ok := primary.Member(refCol)
		if !ok {
			if err := p.unresolvedColumn(primary.FullName(), name, refCol); err != nil {
				return nil, err
			}
			continue
		}
		fm, ok := t.Member(col)
		if !ok {
			if err := p.unresolvedColumn(t.FullName(), name, col); err != nil {
				return nil, err
			}
			continue
		}
		fk.PrimaryMembers = append(fk.PrimaryMembers, pm)
		fk.ForeignMembers = append(fk.ForeignMembers, fm)
	}
	return withMembers(agg.Entities(), func(k *schema.TableKey) int { return len(k.ForeignMembers) }), nil
}

func (p *Provider) TableData(ctx context.Context, t *schema.Table) (*DataTable, error) {
	return p.src.QueryData(ctx, t.Name, "SELECT * FROM "+t.FullName())
}

// ---------------------------------------------------------------------------
// Views
// ---------------------------------------------------------------------------

func (p *Provider) Views(ctx context.Context, db *schema.Database) ([]*schema.View, error) {
	rows, err := p.src.Query(ctx, queryViews, p.schemas)
	if err != nil {
		return nil, err
	}
	views := make([]*schema.View, 0, len(rows))
	for _, r := range rows {
		views = append(views, &schema.View{Schema: r.String("table_schema"), Name: r.String("table_name")})
	}
	return views, nil
}

func (p *Provider) ViewColumns(ctx context.Context, v *schema.View) ([]*schema.Column, error) {
	rows, err := p.src.Query(ctx, queryColumns, v.Schema, v.Name)
	if err != nil {
		return nil, err
	}
	cols := make([]*schema.Column, 0, len(rows))
	for _, r := range rows {
		col := columnFromRow(r)
		dataType := r.String("data_type")
		col.Properties = schema.Properties{
			schema.StringProperty(schema.PropSystemType, dataType),
			schema.StringProperty(schema.PropUserDefinedType, dataType),
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (p *Provider) ViewText(ctx context.Context, v *schema.View) (string, error) {
	return p.scalar(ctx, queryViewText, "view_definition", v.Schema, v.Name)
}

func (p *Provider) ViewData(ctx context.Context, v *schema.View) (*DataTable, error) {
	return p.src.QueryData(ctx, v.Name, "SELECT * FROM "+v.FullName())
}

// ---------------------------------------------------------------------------
// Routines
// ---------------------------------------------------------------------------

// Commands returns the routines of db's schemas. Void-returning routines are
// skipped unless db.IncludeFunctions is set.
func (p *Provider) Commands(ctx context.Context, db *schema.Database) ([]*schema.Command, error) {
	rows, err := p.src.Query(ctx, queryRoutines, p.schemas)
	if err != nil {
		return nil, err
	}
	var cmds []*schema.Command
	for _, r := range rows {
		c := &schema.Command{
			Schema:         r.String("routine_schema"),
			Name:           r.String("routine_name"),
			SpecificSchema: r.String("specific_schema"),
			SpecificName:   r.String("specific_name"),
			Kind:           r.String("routine_type"),
			ReturnType:     r.String("data_type"),
		}
		isVoid := c.IsVoid()
		if isVoid && !db.IncludeFunctions {
			continue
		}
		isProcedure := isVoid || strings.EqualFold(c.Kind, "PROCEDURE")
		c.Properties = schema.Properties{
			schema.BoolProperty(schema.PropIsScalarFunction, !isProcedure),
			schema.BoolProperty(schema.PropIsProcedure, isProcedure),
			schema.StringProperty(schema.PropSpecificName, c.SpecificName),
			schema.StringProperty(schema.PropSpecificSchema, c.SpecificSchema),
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// CommandParameters looks parameters up by the routine's specific name, which
// unlike its display name is unique across overloads.
func (p *Provider) CommandParameters(ctx context.Context, c *schema.Command) ([]*schema.Parameter, error) {
	rows, err := p.src.Query(ctx, queryParameters, c.SpecificSchema, c.SpecificName)
	if err != nil {
		return nil, err
	}
	params := make([]*schema.Parameter, 0, len(rows))
	for _, r := range rows {
		udt := schema.NormalizeNative(r.String("udt_name"))
		typ, isArray := schema.MapType(udt)
		dataType := r.String("data_type")
		params = append(params, &schema.Parameter{
			Name:       r.String("parameter_name"),
			Ordinal:    r.Int("ordinal_position"),
			Direction:  parameterDirection(r.String("parameter_mode")),
			Type:       typ,
			NativeType: udt,
			IsArray:    isArray,
			Size:       r.Int("character_maximum_length"),
			Precision:  r.Int("numeric_precision"),
			Scale:      r.Int("numeric_scale"),
			Properties: schema.Properties{
				schema.StringProperty(schema.PropSystemType, dataType),
				schema.StringProperty(schema.PropUserDefinedType, dataType),
			},
		})
	}
	return params, nil
}

func (p *Provider) CommandText(ctx context.Context, c *schema.Command) (string, error) {
	return p.scalar(ctx, queryRoutineText, "routine_definition", c.SpecificSchema, c.SpecificName)
}

// CommandResults always returns no result sets; the catalog does not describe them.
func (p *Provider) CommandResults(_ context.Context, _ *schema.Command) ([]*schema.Column, error) {
	return []*schema.Column{}, nil
}

// ---------------------------------------------------------------------------
// Extended properties
// ---------------------------------------------------------------------------

// ExtendedProperties returns no stored properties; they are not modeled in
// the catalog.
func (p *Provider) ExtendedProperties(_ context.Context, _ Object) (schema.Properties, error) {
	return schema.Properties{}, nil
}

func (p *Provider) SetExtendedProperties(_ context.Context, obj Object) error {
	return fmt.Errorf("%w: writing extended properties of %s", ErrUnsupported, obj.FullName())
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (p *Provider) scalar(ctx context.Context, sql, col string, args ...any) (string, error) {
	rows, err := p.src.Query(ctx, sql, args...)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].String(col), nil
}

func (p *Provider) unresolvedColumn(table, entity, col string) error {
	if p.strict {
		return fmt.Errorf("%w: %q of %s on %s", ErrUnresolvedColumn, col, entity, table)
	}
	p.log.Printf("skipping member %q of %s: no such column on %s", col, entity, table)
	return nil
}

// withMembers drops entities whose every member was skipped.
func withMembers[E any](in []*E, n func(*E) int) []*E {
	out := in[:0]
	for _, e := range in {
		if n(e) > 0 {
			out = append(out, e)
		}
	}
	return out
}

func columnFromRow(r Row) *schema.Column {
	udt := schema.NormalizeNative(r.String("udt_name"))
	typ, isArray := schema.MapType(udt)
	return &schema.Column{
		Name:       r.String("column_name"),
		Ordinal:    r.Int("ordinal_position"),
		Type:       typ,
		NativeType: udt,
		IsArray:    isArray,
		Size:       r.Int("character_maximum_length"),
		Precision:  r.Int("numeric_precision"),
		Scale:      r.Int("numeric_scale"),
		Nullable:   r.String("is_nullable") != "NO",
		Default:    r.String("column_default"),
	}
}

func parameterDirection(mode string) schema.Direction {
	switch strings.ToUpper(mode) {
	case "IN", "VARIADIC":
		return schema.Input
	case "OUT":
		return schema.Output
	default:
		return schema.InputOutput
	}
}
