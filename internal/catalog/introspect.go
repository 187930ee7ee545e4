package catalog

import (
	"context"
	"fmt"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

// Introspect populates db through p in dependency order: every table with its
// columns first, then indexes and primary keys, then foreign keys (which need
// the full table set), then views and routines.
func Introspect(ctx context.Context, p SchemaProvider, db *schema.Database) error {
	tables, err := p.Tables(ctx, db)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	for _, t := range tables {
		if err := db.AddTable(t); err != nil {
			return err
		}
		cols, err := p.TableColumns(ctx, t)
		if err != nil {
			return fmt.Errorf("columns of %s: %w", t.FullName(), err)
		}
		if err := t.SetColumns(cols); err != nil {
			return err
		}
	}

	for _, t := range db.Tables {
		idx, err := p.TableIndexes(ctx, t)
		if err != nil {
			return fmt.Errorf("indexes of %s: %w", t.FullName(), err)
		}
		t.Indexes = idx
		pk, err := p.TablePrimaryKey(ctx, t)
		if err != nil {
			return fmt.Errorf("primary key of %s: %w", t.FullName(), err)
		}
		t.PrimaryKey = pk
	}

	for _, t := range db.Tables {
		keys, err := p.TableKeys(ctx, db, t)
		if err != nil {
			return fmt.Errorf("foreign keys of %s: %w", t.FullName(), err)
		}
		t.Keys = keys
	}

	views, err := p.Views(ctx, db)
	if err != nil {
		return fmt.Errorf("list views: %w", err)
	}
	for _, v := range views {
		if err := db.AddView(v); err != nil {
			return err
		}
		cols, err := p.ViewColumns(ctx, v)
		if err != nil {
			return fmt.Errorf("columns of %s: %w", v.FullName(), err)
		}
		if err := v.SetColumns(cols); err != nil {
			return err
		}
		if v.Text, err = p.ViewText(ctx, v); err != nil {
			return fmt.Errorf("definition of %s: %w", v.FullName(), err)
		}
	}

	cmds, err := p.Commands(ctx, db)
	if err != nil {
		return fmt.Errorf("list routines: %w", err)
	}
	for _, c := range cmds {
		if err := db.AddCommand(c); err != nil {
			return err
		}
		if c.Parameters, err = p.CommandParameters(ctx, c); err != nil {
			return fmt.Errorf("parameters of %s: %w", c.FullName(), err)
		}
		if c.Text, err = p.CommandText(ctx, c); err != nil {
			return fmt.Errorf("definition of %s: %w", c.FullName(), err)
		}
	}
	return nil
}
