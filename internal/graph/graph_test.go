package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

type fixture struct {
	db *schema.Database
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{db: schema.NewDatabase("shop")}
}

func (f *fixture) table(t *testing.T, name string, cols ...string) *schema.Table {
	t.Helper()
	tbl := schema.NewTable("public", name)
	if err := f.db.AddTable(tbl); err != nil {
		t.Fatal(err)
	}
	cs := make([]*schema.Column, len(cols))
	for i, c := range cols {
		cs[i] = &schema.Column{Name: c, Ordinal: i + 1}
	}
	if err := tbl.SetColumns(cs); err != nil {
		t.Fatal(err)
	}
	if len(cols) > 0 {
		m, _ := tbl.Member(cols[0])
		tbl.PrimaryKey = &schema.PrimaryKey{Name: name + "_pkey", Members: []schema.MemberColumn{m}}
	}
	return tbl
}

func (f *fixture) fk(t *testing.T, child *schema.Table, col string, parent *schema.Table) {
	t.Helper()
	fm, ok := child.Member(col)
	if !ok {
		t.Fatalf("no column %s on %s", col, child.Name)
	}
	pm, _ := parent.Member(parent.Columns[0].Name)
	child.Keys = append(child.Keys, &schema.TableKey{
		Name:           "fk_" + child.Name + "_" + col,
		ForeignTable:   child.Ref(),
		PrimaryTable:   parent.Ref(),
		ForeignMembers: []schema.MemberColumn{fm},
		PrimaryMembers: []schema.MemberColumn{pm},
	})
}

// shop: customers <- orders <- order_lines, employees self-reference,
// audit_log standalone.
func shop(t *testing.T) *schema.Database {
	f := newFixture(t)
	customers := f.table(t, "customers", "id")
	orders := f.table(t, "orders", "id", "customer_id")
	lines := f.table(t, "order_lines", "id", "order_id")
	employees := f.table(t, "employees", "id", "manager_id")
	f.table(t, "audit_log")

	f.fk(t, orders, "customer_id", customers)
	f.fk(t, lines, "order_id", orders)
	f.fk(t, employees, "manager_id", employees)
	return f.db
}

func TestBuild(t *testing.T) {
	g := Build(shop(t), nil)

	if len(g.Nodes) != 5 {
		t.Errorf("nodes = %d, want 5", len(g.Nodes))
	}
	if len(g.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(g.Edges))
	}
	if len(g.SelfRefs) != 1 {
		t.Errorf("self refs = %d, want 1", len(g.SelfRefs))
	}
	roots := g.Names(g.Roots())
	if strings.Join(roots, ",") != "public.customers,public.employees,public.audit_log" {
		t.Errorf("roots = %v", roots)
	}
}

func TestBuildExclude(t *testing.T) {
	g := Build(shop(t), map[string]bool{"orders": true})
	if len(g.Nodes) != 4 {
		t.Errorf("nodes = %d, want 4", len(g.Nodes))
	}
	if len(g.Edges) != 0 {
		t.Errorf("edges touching an excluded table = %d, want 0", len(g.Edges))
	}
}

func TestFindComponents(t *testing.T) {
	g := Build(shop(t), nil)
	comps := FindComponents(g)
	if len(comps) != 3 {
		t.Fatalf("components = %d, want 3", len(comps))
	}
	var got []string
	for _, c := range comps {
		got = append(got, strings.Join(g.Names(c.Tables), "+"))
	}
	want := "public.audit_log|public.customers+public.order_lines+public.orders|public.employees"
	if strings.Join(got, "|") != want {
		t.Errorf("components = %v, want %v", got, want)
	}
}

func TestTopoSort(t *testing.T) {
	g := Build(shop(t), nil)
	res := TopoSortAll(g)
	if res.HasCycle {
		t.Fatalf("unexpected cycle: %v", g.Names(res.CycleTables))
	}
	pos := make(map[string]int)
	for i, n := range g.Names(res.Order) {
		pos[n] = i
	}
	if !(pos["public.customers"] < pos["public.orders"] && pos["public.orders"] < pos["public.order_lines"]) {
		t.Errorf("order = %v", g.Names(res.Order))
	}
	if err := g.ValidateCycles(res); err != nil {
		t.Errorf("ValidateCycles() = %v", err)
	}
}

func TestTopoSortCycle(t *testing.T) {
	f := newFixture(t)
	a := f.table(t, "a", "id", "b_id")
	b := f.table(t, "b", "id", "a_id")
	f.fk(t, a, "b_id", b)
	f.fk(t, b, "a_id", a)

	g := Build(f.db, nil)
	res := TopoSortAll(g)
	if !res.HasCycle || len(res.CycleTables) != 2 {
		t.Errorf("result = %+v, want cycle over 2 tables", res)
	}
	if err := g.ValidateCycles(res); err == nil {
		t.Error("ValidateCycles() = nil, want error")
	}
}

func TestWriteMermaid(t *testing.T) {
	g := Build(shop(t), nil)
	var buf bytes.Buffer
	if err := WriteMermaid(&buf, g); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"graph TD",
		"public_orders -->|customer_id| public_customers",
		"public_order_lines -->|order_id| public_orders",
		"public_employees -->|manager_id| public_employees",
		"        public_audit_log\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("mermaid output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText(t *testing.T) {
	g := Build(shop(t), nil)
	var buf bytes.Buffer
	if err := WriteText(&buf, g); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Tables: 5\n",
		"Foreign Keys: 3\n",
		"Connected Components: 3\n",
		"WARNING: Tables without primary key: [public.audit_log]",
		"Self-referencing tables: [public.employees]",
		"public.orders (2 cols, PK: id, 1 FKs)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestMermaidID(t *testing.T) {
	if got := mermaidID(`public.order lines"x`); got != "public_order_lines_x" {
		t.Errorf("mermaidID() = %q", got)
	}
}
