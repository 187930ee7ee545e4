package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

// fakeSource serves canned rows per query, keyed by the query text and the
// first two bind arguments.
type fakeSource struct {
	rows  map[string][]Row
	calls []string
	err   error
}

func newFakeSource() *fakeSource {
	return &fakeSource{rows: make(map[string][]Row)}
}

func fakeKey(sql string, args ...any) string {
	var b strings.Builder
	b.WriteString(sql)
	for i, a := range args {
		if i == 2 {
			break
		}
		if _, ok := a.([]string); ok {
			continue
		}
		fmt.Fprintf(&b, "|%v", a)
	}
	return b.String()
}

func (f *fakeSource) set(rows []Row, sql string, args ...any) {
	f.rows[fakeKey(sql, args...)] = rows
}

func (f *fakeSource) Query(_ context.Context, sql string, args ...any) ([]Row, error) {
	key := fakeKey(sql, args...)
	f.calls = append(f.calls, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[key], nil
}

func (f *fakeSource) QueryData(_ context.Context, name, sql string) (*DataTable, error) {
	f.calls = append(f.calls, sql)
	return &DataTable{Name: name, Columns: []string{"id"}, Rows: [][]any{{1}}}, nil
}

func (f *fakeSource) called(sql string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, sql) {
			n++
		}
	}
	return n
}

func colRow(name string, ord int, udt, dataType, def string) Row {
	r := Row{
		"column_name":      name,
		"ordinal_position": int32(ord),
		"udt_name":         udt,
		"data_type":        dataType,
		"is_nullable":      "YES",
		"column_default":   nil,
	}
	if def != "" {
		r["column_default"] = def
	}
	return r
}

func idxRow(index, col string, primary bool) Row {
	return Row{
		"table_schema": "public",
		"table_name":   "orders",
		"index_name":   index,
		"column_name":  col,
		"is_unique":    primary,
		"is_primary":   primary,
		"is_clustered": false,
	}
}

func fkRow(name, col, refTable, refCol string) Row {
	return Row{
		"constraint_name":        name,
		"table_schema":           "public",
		"table_name":             "orders",
		"column_name":            col,
		"reference_table_schema": "public",
		"reference_table_name":   refTable,
		"reference_column_name":  refCol,
		"on_update":              "a",
		"on_delete":              "c",
	}
}

// shopSource describes customers(id) and orders(id, customer_id, total) with
// a primary key on orders(id) and a foreign key orders.customer_id -> customers.id.
func shopSource() *fakeSource {
	f := newFakeSource()
	f.set([]Row{
		{"table_schema": "public", "table_name": "customers"},
		{"table_schema": "public", "table_name": "orders"},
	}, queryTables)
	f.set([]Row{
		colRow("id", 1, "int4", "integer", "nextval('customers_id_seq'::regclass)"),
	}, queryColumns, "public", "customers")
	f.set([]Row{
		colRow("id", 1, "int4", "integer", `nextval('"orders_id_seq"'::regclass)`),
		colRow("customer_id", 2, "int4", "integer", ""),
		colRow("total", 3, "numeric", "numeric", "0"),
	}, queryColumns, "public", "orders")
	f.set([]Row{
		idxRow("orders_pkey", "id", true),
	}, queryIndexes, "public", "orders")
	f.set([]Row{
		fkRow("fk_orders_customer", "customer_id", "customers", "id"),
	}, queryForeignKeys, "public", "orders")
	return f
}

func introspectShop(t *testing.T, f *fakeSource, opts Options) *schema.Database {
	t.Helper()
	db := schema.NewDatabase("shop")
	if err := Introspect(context.Background(), New(f, opts), db); err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	return db
}

func TestTableColumns(t *testing.T) {
	db := introspectShop(t, shopSource(), Options{})

	orders := db.Table("public", "orders")
	if orders == nil {
		t.Fatal("orders not registered")
	}
	if got := orders.ColumnNames(); strings.Join(got, ",") != "id,customer_id,total" {
		t.Errorf("ColumnNames() = %v", got)
	}

	id := orders.Columns[0]
	if !id.IsIdentity || id.Default != "" {
		t.Errorf("id: IsIdentity=%v Default=%q, want identity with empty default", id.IsIdentity, id.Default)
	}
	if id.Type != schema.Int32 {
		t.Errorf("id type = %v, want Int32", id.Type)
	}
	if got := id.Properties.String(schema.PropIsIdentity); got != "true" {
		t.Errorf("CS_IsIdentity = %q", got)
	}

	total := orders.Columns[2]
	if total.IsIdentity || total.Default != "0" {
		t.Errorf("total: IsIdentity=%v Default=%q", total.IsIdentity, total.Default)
	}
	if total.Type != schema.Decimal {
		t.Errorf("total type = %v, want Decimal", total.Type)
	}
	if got := total.Properties.String(schema.PropSystemType); got != "numeric" {
		t.Errorf("CS_SystemType = %q", got)
	}
}

func TestArrayColumn(t *testing.T) {
	f := newFakeSource()
	f.set([]Row{colRow("tags", 1, "_text", "ARRAY", "")}, queryColumns, "public", "posts")
	p := New(f, Options{})
	cols, err := p.TableColumns(context.Background(), schema.NewTable("public", "posts"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 1 {
		t.Fatalf("got %d columns", len(cols))
	}
	if c := cols[0]; !c.IsArray || c.NativeType != "text[]" || c.Type != schema.String {
		t.Errorf("tags = %+v", c)
	}
}

func TestTableIndexesAggregate(t *testing.T) {
	f := newFakeSource()
	f.set([]Row{
		{"table_schema": "public", "table_name": "t", "index_name": "ix_abc", "column_name": "a", "is_unique": true},
		{"table_schema": "public", "table_name": "t", "index_name": "ix_abc", "column_name": "b", "is_unique": true},
		{"table_schema": "public", "table_name": "t", "index_name": "ix_abc", "column_name": "c", "is_unique": true},
		{"table_schema": "public", "table_name": "t", "index_name": "ix_b", "column_name": "b"},
	}, queryIndexes, "public", "t")

	tbl := schema.NewTable("public", "t")
	if err := tbl.SetColumns([]*schema.Column{
		{Name: "a", Ordinal: 1}, {Name: "b", Ordinal: 2}, {Name: "c", Ordinal: 3},
	}); err != nil {
		t.Fatal(err)
	}

	idx, err := New(f, Options{}).TableIndexes(context.Background(), tbl)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx) != 2 {
		t.Fatalf("got %d indexes, want 2", len(idx))
	}
	var names []string
	for _, m := range idx[0].Members {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "a,b,c" {
		t.Errorf("ix_abc members = %v, want a,b,c", names)
	}
	if !idx[0].IsUnique || idx[1].IsUnique {
		t.Errorf("uniqueness = %v, %v", idx[0].IsUnique, idx[1].IsUnique)
	}
}

func TestUnresolvedIndexMember(t *testing.T) {
	f := newFakeSource()
	f.set([]Row{
		{"table_schema": "public", "table_name": "t", "index_name": "ix", "column_name": "a"},
		{"table_schema": "public", "table_name": "t", "index_name": "ix", "column_name": "gone"},
	}, queryIndexes, "public", "t")
	tbl := schema.NewTable("public", "t")
	if err := tbl.SetColumns([]*schema.Column{{Name: "a", Ordinal: 1}}); err != nil {
		t.Fatal(err)
	}

	idx, err := New(f, Options{}).TableIndexes(context.Background(), tbl)
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if len(idx) != 1 || len(idx[0].Members) != 1 {
		t.Errorf("lenient result = %+v", idx)
	}

	_, err = New(f, Options{StrictKeys: true}).TableIndexes(context.Background(), tbl)
	if !errors.Is(err, ErrUnresolvedColumn) {
		t.Errorf("strict error = %v, want ErrUnresolvedColumn", err)
	}
}

func TestPrimaryKeyDerivedFromIndex(t *testing.T) {
	f := shopSource()
	db := introspectShop(t, f, Options{})

	orders := db.Table("public", "orders")
	if orders.PrimaryKey == nil {
		t.Fatal("orders has no primary key")
	}
	if orders.PrimaryKey.Name != "orders_pkey" {
		t.Errorf("primary key name = %q", orders.PrimaryKey.Name)
	}
	if len(orders.PrimaryKey.Members) != 1 || db.Column(orders.PrimaryKey.Members[0]).Name != "id" {
		t.Errorf("primary key members = %+v", orders.PrimaryKey.Members)
	}
	if customers := db.Table("public", "customers"); customers.PrimaryKey != nil {
		t.Errorf("customers primary key = %+v, want nil", customers.PrimaryKey)
	}
}

func TestTableKeys(t *testing.T) {
	db := introspectShop(t, shopSource(), Options{})

	orders := db.Table("public", "orders")
	if len(orders.Keys) != 1 {
		t.Fatalf("orders keys = %d, want 1", len(orders.Keys))
	}
	fk := orders.Keys[0]
	if db.TableAt(fk.PrimaryTable).Name != "customers" || db.TableAt(fk.ForeignTable).Name != "orders" {
		t.Errorf("key tables = %d -> %d", fk.ForeignTable, fk.PrimaryTable)
	}
	if len(fk.ForeignMembers) != 1 || len(fk.PrimaryMembers) != 1 {
		t.Fatalf("members = %d/%d", len(fk.ForeignMembers), len(fk.PrimaryMembers))
	}
	if db.Column(fk.ForeignMembers[0]).Name != "customer_id" || db.Column(fk.PrimaryMembers[0]).Name != "id" {
		t.Errorf("members = %+v / %+v", fk.ForeignMembers, fk.PrimaryMembers)
	}
	if !fk.CascadeDelete || fk.CascadeUpdate {
		t.Errorf("cascade delete=%v update=%v", fk.CascadeDelete, fk.CascadeUpdate)
	}
}

func TestCompositeForeignKey(t *testing.T) {
	f := newFakeSource()
	db := schema.NewDatabase("x")
	parent := schema.NewTable("public", "parent")
	child := schema.NewTable("public", "orders")
	for _, tbl := range []*schema.Table{parent, child} {
		if err := db.AddTable(tbl); err != nil {
			t.Fatal(err)
		}
	}
	_ = parent.SetColumns([]*schema.Column{{Name: "a", Ordinal: 1}, {Name: "b", Ordinal: 2}})
	_ = child.SetColumns([]*schema.Column{{Name: "pa", Ordinal: 1}, {Name: "pb", Ordinal: 2}})
	f.set([]Row{
		fkRow("fk_parent", "pa", "parent", "a"),
		fkRow("fk_parent", "pb", "parent", "b"),
	}, queryForeignKeys, "public", "orders")

	keys, err := New(f, Options{}).TableKeys(context.Background(), db, child)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 {
		t.Fatalf("keys = %d, want 1", len(keys))
	}
	k := keys[0]
	if len(k.ForeignMembers) != 2 || k.ForeignMembers[1].Name != "pb" || k.PrimaryMembers[1].Name != "b" {
		t.Errorf("composite members = %+v / %+v", k.ForeignMembers, k.PrimaryMembers)
	}
}

func TestDanglingForeignKey(t *testing.T) {
	f := shopSource()
	f.set([]Row{
		fkRow("fk_orders_customer", "customer_id", "customers", "id"),
		fkRow("fk_orders_archive", "customer_id", "archived_customers", "id"),
	}, queryForeignKeys, "public", "orders")

	db := introspectShop(t, f, Options{})
	orders := db.Table("public", "orders")
	if len(orders.Keys) != 1 || orders.Keys[0].Name != "fk_orders_customer" {
		t.Errorf("keys = %+v, want only fk_orders_customer", orders.Keys)
	}

	err := Introspect(context.Background(), New(f, Options{StrictKeys: true}), schema.NewDatabase("shop"))
	if !errors.Is(err, ErrUnresolvedTable) {
		t.Errorf("strict Introspect error = %v, want ErrUnresolvedTable", err)
	}
}

func TestViews(t *testing.T) {
	f := shopSource()
	f.set([]Row{{"table_schema": "public", "table_name": "big_orders"}}, queryViews)
	f.set([]Row{
		colRow("id", 1, "int4", "integer", ""),
		colRow("total", 2, "numeric", "numeric", ""),
	}, queryColumns, "public", "big_orders")
	f.set([]Row{{"view_definition": " SELECT id, total FROM orders WHERE total > 100;"}},
		queryViewText, "public", "big_orders")

	db := introspectShop(t, f, Options{})
	v := db.View("public", "big_orders")
	if v == nil {
		t.Fatal("view not registered")
	}
	if len(v.Columns) != 2 || v.Columns[1].Name != "total" {
		t.Errorf("view columns = %v", v.ColumnNames())
	}
	if !strings.Contains(v.Text, "total > 100") {
		t.Errorf("view text = %q", v.Text)
	}
	if _, ok := v.Columns[0].Properties.Get(schema.PropIsIdentity); ok {
		t.Error("view columns carry no identity property")
	}
}

func routineRow(specific, name, kind, returns string) Row {
	return Row{
		"specific_schema": "public",
		"specific_name":   specific,
		"routine_schema":  "public",
		"routine_name":    name,
		"routine_type":    kind,
		"data_type":       returns,
	}
}

func TestCommandsExcludeVoid(t *testing.T) {
	f := shopSource()
	f.set([]Row{
		routineRow("order_total_101", "order_total", "FUNCTION", "numeric"),
		routineRow("touch_orders_102", "touch_orders", "FUNCTION", "void"),
	}, queryRoutines)
	f.set([]Row{
		{"ordinal_position": int32(1), "parameter_mode": "IN", "parameter_name": "order_id", "udt_name": "int4", "data_type": "integer"},
		{"ordinal_position": int32(2), "parameter_mode": "OUT", "parameter_name": "total", "udt_name": "numeric", "data_type": "numeric"},
		{"ordinal_position": int32(3), "parameter_mode": "INOUT", "parameter_name": "scale", "udt_name": "int4", "data_type": "integer"},
	}, queryParameters, "public", "order_total_101")

	db := introspectShop(t, f, Options{})
	if len(db.Commands) != 1 || db.Commands[0].Name != "order_total" {
		t.Fatalf("commands = %+v", db.Commands)
	}
	if n := f.called(fakeKey(queryParameters, "public", "touch_orders_102")); n != 0 {
		t.Errorf("parameters of excluded routine fetched %d times", n)
	}

	c := db.Commands[0]
	want := []schema.Direction{schema.Input, schema.Output, schema.InputOutput}
	if len(c.Parameters) != len(want) {
		t.Fatalf("parameters = %d", len(c.Parameters))
	}
	for i, d := range want {
		if c.Parameters[i].Direction != d {
			t.Errorf("parameter %d direction = %v, want %v", i, c.Parameters[i].Direction, d)
		}
	}
	if got := c.Properties.String(schema.PropSpecificName); got != "order_total_101" {
		t.Errorf("specific_name = %q", got)
	}

	f2 := shopSource()
	f2.rows = f.rows
	db2 := schema.NewDatabase("shop")
	db2.IncludeFunctions = true
	if err := Introspect(context.Background(), New(f2, Options{}), db2); err != nil {
		t.Fatal(err)
	}
	if len(db2.Commands) != 2 {
		t.Errorf("IncludeFunctions commands = %d, want 2", len(db2.Commands))
	}
}

func TestParameterDirection(t *testing.T) {
	tests := []struct {
		mode string
		want schema.Direction
	}{
		{"IN", schema.Input},
		{"in", schema.Input},
		{"VARIADIC", schema.Input},
		{"OUT", schema.Output},
		{"INOUT", schema.InputOutput},
	}
	for _, tt := range tests {
		if got := parameterDirection(tt.mode); got != tt.want {
			t.Errorf("parameterDirection(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Host=localhost;Database=shop;Username=app", "shop"},
		{"host=db;database = inventory", "inventory"},
		{"DATABASE=Sales;Port=5432", "Sales"},
		{"postgres://localhost/shop", "postgres://localhost/shop"},
		{"", ""},
	}
	p := New(newFakeSource(), Options{})
	for _, tt := range tests {
		if got := p.DatabaseName(tt.in); got != tt.want {
			t.Errorf("DatabaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtendedProperties(t *testing.T) {
	p := New(newFakeSource(), Options{})
	tbl := schema.NewTable("public", "orders")

	props, err := p.ExtendedProperties(context.Background(), tbl)
	if err != nil || len(props) != 0 {
		t.Errorf("ExtendedProperties() = %v, %v", props, err)
	}
	if err := p.SetExtendedProperties(context.Background(), tbl); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetExtendedProperties() error = %v, want ErrUnsupported", err)
	}
	res, err := p.CommandResults(context.Background(), &schema.Command{})
	if err != nil || len(res) != 0 {
		t.Errorf("CommandResults() = %v, %v", res, err)
	}
}

func TestTableData(t *testing.T) {
	f := newFakeSource()
	dt, err := New(f, Options{}).TableData(context.Background(), schema.NewTable("public", "orders"))
	if err != nil {
		t.Fatal(err)
	}
	if dt.Name != "orders" {
		t.Errorf("DataTable name = %q", dt.Name)
	}
	if len(f.calls) != 1 || f.calls[0] != `SELECT * FROM "public"."orders"` {
		t.Errorf("calls = %v", f.calls)
	}
}

func TestQueryErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	f := newFakeSource()
	f.err = boom
	_, err := New(f, Options{}).Tables(context.Background(), schema.NewDatabase("x"))
	if err != boom {
		t.Errorf("Tables() error = %v, want unwrapped %v", err, boom)
	}
}

func TestColumnsAssignedDirectly(t *testing.T) {
	f := newFakeSource()
	f.set([]Row{
		{"table_schema": "public", "table_name": "t", "index_name": "t_pkey", "column_name": "id", "is_unique": true, "is_primary": true},
	}, queryIndexes, "public", "t")

	ctx := context.Background()
	for _, strict := range []bool{false, true} {
		tbl := schema.NewTable("public", "t")
		tbl.Columns = []*schema.Column{{Name: "id", Ordinal: 1}}
		p := New(f, Options{StrictKeys: strict})

		idx, err := p.TableIndexes(ctx, tbl)
		if err != nil {
			t.Fatalf("strict=%v: TableIndexes: %v", strict, err)
		}
		if len(idx) != 1 || len(idx[0].Members) != 1 || idx[0].Members[0].Column != 0 {
			t.Fatalf("strict=%v: indexes = %+v", strict, idx)
		}
		tbl.Indexes = idx
		pk, err := p.TablePrimaryKey(ctx, tbl)
		if err != nil || pk == nil || pk.Name != "t_pkey" {
			t.Errorf("strict=%v: TablePrimaryKey() = %+v, %v", strict, pk, err)
		}
	}
}

func TestScatteredIndexRows(t *testing.T) {
	f := newFakeSource()
	row := func(index, col string) Row {
		return Row{"table_schema": "public", "table_name": "t", "index_name": index, "column_name": col}
	}
	f.set([]Row{row("ix1", "a"), row("ix2", "x"), row("ix1", "b")}, queryIndexes, "public", "t")

	tbl := schema.NewTable("public", "t")
	if err := tbl.SetColumns([]*schema.Column{
		{Name: "a", Ordinal: 1}, {Name: "b", Ordinal: 2}, {Name: "x", Ordinal: 3},
	}); err != nil {
		t.Fatal(err)
	}

	idx, err := New(f, Options{}).TableIndexes(context.Background(), tbl)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx) != 2 || idx[0].Name != "ix1" || idx[1].Name != "ix2" {
		t.Fatalf("indexes = %+v, want ix1 then ix2", idx)
	}
	if got := strings.Join(schemaMemberNames(idx[0].Members), ","); got != "a,b" {
		t.Errorf("ix1 members = %s, want a,b", got)
	}
	if got := strings.Join(schemaMemberNames(idx[1].Members), ","); got != "x" {
		t.Errorf("ix2 members = %s, want x", got)
	}
}

func TestScatteredForeignKeyRows(t *testing.T) {
	db := schema.NewDatabase("x")
	parent := schema.NewTable("public", "parent")
	child := schema.NewTable("public", "orders")
	for _, tbl := range []*schema.Table{parent, child} {
		if err := db.AddTable(tbl); err != nil {
			t.Fatal(err)
		}
	}
	_ = parent.SetColumns([]*schema.Column{{Name: "a", Ordinal: 1}, {Name: "b", Ordinal: 2}, {Name: "c", Ordinal: 3}})
	_ = child.SetColumns([]*schema.Column{{Name: "pa", Ordinal: 1}, {Name: "pb", Ordinal: 2}, {Name: "pc", Ordinal: 3}})

	f := newFakeSource()
	f.set([]Row{
		fkRow("fk_ab", "pa", "parent", "a"),
		fkRow("fk_c", "pc", "parent", "c"),
		fkRow("fk_ab", "pb", "parent", "b"),
	}, queryForeignKeys, "public", "orders")

	keys, err := New(f, Options{}).TableKeys(context.Background(), db, child)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0].Name != "fk_ab" || keys[1].Name != "fk_c" {
		t.Fatalf("keys = %+v, want fk_ab then fk_c", keys)
	}
	if got := strings.Join(schemaMemberNames(keys[0].ForeignMembers), ","); got != "pa,pb" {
		t.Errorf("fk_ab foreign members = %s, want pa,pb", got)
	}
	if got := strings.Join(schemaMemberNames(keys[0].PrimaryMembers), ","); got != "a,b" {
		t.Errorf("fk_ab primary members = %s, want a,b", got)
	}
	if got := strings.Join(schemaMemberNames(keys[1].ForeignMembers), ","); got != "pc" {
		t.Errorf("fk_c foreign members = %s, want pc", got)
	}
}

func TestFirstPrimaryIndexWins(t *testing.T) {
	tbl := schema.NewTable("public", "t")
	if err := tbl.SetColumns([]*schema.Column{{Name: "a", Ordinal: 1}, {Name: "b", Ordinal: 2}}); err != nil {
		t.Fatal(err)
	}
	a, _ := tbl.Member("a")
	b, _ := tbl.Member("b")
	tbl.Indexes = []*schema.Index{
		{Name: "ix_plain", Members: []schema.MemberColumn{b}},
		{Name: "pk_first", IsPrimary: true, Members: []schema.MemberColumn{a}},
		{Name: "pk_second", IsPrimary: true, Members: []schema.MemberColumn{b}},
	}

	pk, err := New(newFakeSource(), Options{}).TablePrimaryKey(context.Background(), tbl)
	if err != nil {
		t.Fatal(err)
	}
	if pk == nil || pk.Name != "pk_first" || len(pk.Members) != 1 || pk.Members[0].Name != "a" {
		t.Errorf("TablePrimaryKey() = %+v, want pk_first(a)", pk)
	}
}

func schemaMemberNames(members []schema.MemberColumn) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}
