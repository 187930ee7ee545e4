package cmd

import (
	"strings"
	"testing"

	"github.com/hurou927/pg-schema-explorer/internal/output"
	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

func describeFixture(t *testing.T) *schema.Database {
	t.Helper()
	d := schema.NewDatabase("shop")
	for _, c := range []*schema.Command{
		{Schema: "public", Name: "order_total", SpecificSchema: "public", SpecificName: "order_total_1", Text: "SELECT 1"},
		{Schema: "public", Name: "order_total", SpecificSchema: "public", SpecificName: "order_total_2", Text: "SELECT 2"},
	} {
		if err := d.AddCommand(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.AddView(&schema.View{Schema: "public", Name: "recent_orders", Text: "SELECT id FROM orders"}); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDescribeSingleSplitsDefinition(t *testing.T) {
	d := describeFixture(t)

	doc, definition, err := describe(d, "recent_orders", true)
	if err != nil {
		t.Fatal(err)
	}
	if definition != "SELECT id FROM orders" {
		t.Errorf("definition = %q", definition)
	}
	if vd, ok := doc.(output.ViewDoc); !ok || vd.Definition != "" {
		t.Errorf("doc = %+v, want ViewDoc without definition", doc)
	}

	doc, definition, err = describe(d, "recent_orders", false)
	if err != nil {
		t.Fatal(err)
	}
	if vd := doc.(output.ViewDoc); definition != "" || vd.Definition == "" {
		t.Errorf("without highlight: definition = %q, doc = %+v", definition, vd)
	}
}

func TestDescribeOverloadsKeepDefinitions(t *testing.T) {
	d := describeFixture(t)

	doc, definition, err := describe(d, "public.order_total", true)
	if err != nil {
		t.Fatal(err)
	}
	if definition != "" {
		t.Errorf("definition = %q, want none split out", definition)
	}
	list, ok := doc.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("doc = %+v, want two matches", doc)
	}
	for i, want := range []string{"SELECT 1", "SELECT 2"} {
		cd, ok := list[i].(output.CommandDoc)
		if !ok || cd.Definition != want {
			t.Errorf("match %d = %+v, want definition %q", i, list[i], want)
		}
	}
}

func TestDescribeSuggests(t *testing.T) {
	d := describeFixture(t)
	_, _, err := describe(d, "recent_ordrs", false)
	if err == nil || !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("describe(recent_ordrs) error = %v, want suggestions", err)
	}
}
