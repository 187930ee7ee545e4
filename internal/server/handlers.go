package server

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
	"github.com/hurou927/pg-schema-explorer/internal/graph"
	"github.com/hurou927/pg-schema-explorer/internal/output"
	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

// SchemaHandler serves the provider operations. Every request builds its own
// Database; nothing is cached between requests.
type SchemaHandler struct {
	provider         catalog.SchemaProvider
	descriptor       string
	includeFunctions bool
	exclude          map[string]bool
}

func NewSchemaHandler(p catalog.SchemaProvider, opts Options) *SchemaHandler {
	return &SchemaHandler{
		provider:         p,
		descriptor:       opts.Descriptor,
		includeFunctions: opts.IncludeFunctions,
		exclude:          opts.Exclude,
	}
}

type objectRef struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

func (h *SchemaHandler) newDatabase() *schema.Database {
	db := schema.NewDatabase(h.provider.DatabaseName(h.descriptor))
	db.IncludeFunctions = h.includeFunctions
	return db
}

// loadTables registers every table with its columns, which foreign key
// resolution needs.
func (h *SchemaHandler) loadTables(ctx context.Context) (*schema.Database, error) {
	db := h.newDatabase()
	tables, err := h.provider.Tables(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if err := db.AddTable(t); err != nil {
			return nil, err
		}
		cols, err := h.provider.TableColumns(ctx, t)
		if err != nil {
			return nil, err
		}
		if err := t.SetColumns(cols); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (h *SchemaHandler) table(c *gin.Context) (*schema.Database, *schema.Table, error) {
	db, err := h.loadTables(c.Request.Context())
	if err != nil {
		return nil, nil, err
	}
	t := db.Table(c.Param("schema"), c.Param("name"))
	if t == nil {
		return nil, nil, fmt.Errorf("table %s.%s: %w", c.Param("schema"), c.Param("name"), errNotFound)
	}
	return db, t, nil
}

func (h *SchemaHandler) view(c *gin.Context) (*schema.View, error) {
	ctx := c.Request.Context()
	views, err := h.provider.Views(ctx, h.newDatabase())
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		if v.Schema == c.Param("schema") && v.Name == c.Param("name") {
			cols, err := h.provider.ViewColumns(ctx, v)
			if err != nil {
				return nil, err
			}
			if err := v.SetColumns(cols); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return nil, fmt.Errorf("view %s.%s: %w", c.Param("schema"), c.Param("name"), errNotFound)
}

// command resolves :schema/:name as the routine's specific name.
func (h *SchemaHandler) command(c *gin.Context) (*schema.Command, error) {
	cmds, err := h.provider.Commands(c.Request.Context(), h.newDatabase())
	if err != nil {
		return nil, err
	}
	for _, cmd := range cmds {
		if cmd.SpecificSchema == c.Param("schema") && cmd.SpecificName == c.Param("name") {
			return cmd, nil
		}
	}
	return nil, fmt.Errorf("routine %s.%s: %w", c.Param("schema"), c.Param("name"), errNotFound)
}

// Database handles GET /api/v1/database
func (h *SchemaHandler) Database(c *gin.Context) {
	success(c, gin.H{
		"name":        h.provider.DatabaseName(h.descriptor),
		"provider":    h.provider.Name(),
		"description": h.provider.Description(),
	}, "")
}

// Tables handles GET /api/v1/tables
func (h *SchemaHandler) Tables(c *gin.Context) {
	tables, err := h.provider.Tables(c.Request.Context(), h.newDatabase())
	if err != nil {
		log.Printf("listing tables: %v", err)
		failFor(c, err, "Failed to list tables")
		return
	}
	refs := []objectRef{}
	for _, t := range tables {
		if h.exclude[t.Name] {
			continue
		}
		refs = append(refs, objectRef{Schema: t.Schema, Name: t.Name})
	}
	success(c, refs, "")
}

// TableColumns handles GET /api/v1/tables/:schema/:name/columns
func (h *SchemaHandler) TableColumns(c *gin.Context) {
	_, t, err := h.table(c)
	if err != nil {
		failFor(c, err, "Failed to load columns")
		return
	}
	success(c, output.ColumnDocs(t.Columns), "")
}

// TableIndexes handles GET /api/v1/tables/:schema/:name/indexes
func (h *SchemaHandler) TableIndexes(c *gin.Context) {
	_, t, err := h.table(c)
	if err != nil {
		failFor(c, err, "Failed to load indexes")
		return
	}
	idx, err := h.provider.TableIndexes(c.Request.Context(), t)
	if err != nil {
		failFor(c, err, "Failed to load indexes")
		return
	}
	docs := make([]output.IndexDoc, len(idx))
	for i, ix := range idx {
		docs[i] = output.IndexDocument(ix)
	}
	success(c, docs, "")
}

// TablePrimaryKey handles GET /api/v1/tables/:schema/:name/primary-key
func (h *SchemaHandler) TablePrimaryKey(c *gin.Context) {
	ctx := c.Request.Context()
	_, t, err := h.table(c)
	if err != nil {
		failFor(c, err, "Failed to load primary key")
		return
	}
	if t.Indexes, err = h.provider.TableIndexes(ctx, t); err != nil {
		failFor(c, err, "Failed to load primary key")
		return
	}
	pk, err := h.provider.TablePrimaryKey(ctx, t)
	if err != nil {
		failFor(c, err, "Failed to load primary key")
		return
	}
	if pk == nil {
		success(c, nil, "Table has no primary key")
		return
	}
	success(c, output.PrimaryKeyDoc{Name: pk.Name, Columns: output.MemberNames(pk.Members)}, "")
}

// TableKeys handles GET /api/v1/tables/:schema/:name/keys
func (h *SchemaHandler) TableKeys(c *gin.Context) {
	db, t, err := h.table(c)
	if err != nil {
		failFor(c, err, "Failed to load foreign keys")
		return
	}
	keys, err := h.provider.TableKeys(c.Request.Context(), db, t)
	if err != nil {
		failFor(c, err, "Failed to load foreign keys")
		return
	}
	docs := make([]output.ForeignKeyDoc, len(keys))
	for i, k := range keys {
		docs[i] = output.ForeignKeyDocument(db, k)
	}
	success(c, docs, "")
}

// Views handles GET /api/v1/views
func (h *SchemaHandler) Views(c *gin.Context) {
	views, err := h.provider.Views(c.Request.Context(), h.newDatabase())
	if err != nil {
		failFor(c, err, "Failed to list views")
		return
	}
	refs := make([]objectRef, len(views))
	for i, v := range views {
		refs[i] = objectRef{Schema: v.Schema, Name: v.Name}
	}
	success(c, refs, "")
}

// ViewColumns handles GET /api/v1/views/:schema/:name/columns
func (h *SchemaHandler) ViewColumns(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		failFor(c, err, "Failed to load view columns")
		return
	}
	success(c, output.ColumnDocs(v.Columns), "")
}

// ViewText handles GET /api/v1/views/:schema/:name/text
func (h *SchemaHandler) ViewText(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		failFor(c, err, "Failed to load view definition")
		return
	}
	text, err := h.provider.ViewText(c.Request.Context(), v)
	if err != nil {
		failFor(c, err, "Failed to load view definition")
		return
	}
	success(c, gin.H{"definition": text}, "")
}

// Commands handles GET /api/v1/commands
func (h *SchemaHandler) Commands(c *gin.Context) {
	cmds, err := h.provider.Commands(c.Request.Context(), h.newDatabase())
	if err != nil {
		failFor(c, err, "Failed to list routines")
		return
	}
	docs := make([]output.CommandDoc, len(cmds))
	for i, cmd := range cmds {
		docs[i] = output.CommandDocument(cmd)
	}
	success(c, docs, "")
}

// CommandParameters handles GET /api/v1/commands/:schema/:name/parameters
func (h *SchemaHandler) CommandParameters(c *gin.Context) {
	cmd, err := h.command(c)
	if err != nil {
		failFor(c, err, "Failed to load parameters")
		return
	}
	params, err := h.provider.CommandParameters(c.Request.Context(), cmd)
	if err != nil {
		failFor(c, err, "Failed to load parameters")
		return
	}
	success(c, output.ParameterDocs(params), "")
}

// CommandText handles GET /api/v1/commands/:schema/:name/text
func (h *SchemaHandler) CommandText(c *gin.Context) {
	cmd, err := h.command(c)
	if err != nil {
		failFor(c, err, "Failed to load routine definition")
		return
	}
	text, err := h.provider.CommandText(c.Request.Context(), cmd)
	if err != nil {
		failFor(c, err, "Failed to load routine definition")
		return
	}
	success(c, gin.H{"definition": text}, "")
}

// Model handles GET /api/v1/model
func (h *SchemaHandler) Model(c *gin.Context) {
	db := h.newDatabase()
	if err := catalog.Introspect(c.Request.Context(), h.provider, db); err != nil {
		log.Printf("introspecting %s: %v", db.Name, err)
		failFor(c, err, "Failed to introspect database")
		return
	}
	success(c, output.BuildDocument(db, h.exclude), "")
}

// Dependencies handles GET /api/v1/dependencies
func (h *SchemaHandler) Dependencies(c *gin.Context) {
	db := h.newDatabase()
	if err := catalog.Introspect(c.Request.Context(), h.provider, db); err != nil {
		failFor(c, err, "Failed to introspect database")
		return
	}
	g := graph.Build(db, h.exclude)
	res := graph.TopoSortAll(g)

	components := [][]string{}
	for _, comp := range graph.FindComponents(g) {
		components = append(components, g.Names(comp.Tables))
	}
	cycle := []string{}
	if res.HasCycle {
		cycle = g.Names(res.CycleTables)
	}
	success(c, gin.H{
		"order":      g.Names(res.Order),
		"components": components,
		"cycle":      cycle,
	}, "")
}

// Properties handles GET .../properties on tables, views and commands.
func (h *SchemaHandler) Properties(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := h.object(kind, c)
		props, err := h.provider.ExtendedProperties(c.Request.Context(), obj)
		if err != nil {
			failFor(c, err, "Failed to load extended properties")
			return
		}
		success(c, props, "")
	}
}

// SetProperties handles PUT .../properties on tables, views and commands.
func (h *SchemaHandler) SetProperties(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := h.object(kind, c)
		if err := h.provider.SetExtendedProperties(c.Request.Context(), obj); err != nil {
			failFor(c, err, "Extended properties are read-only")
			return
		}
		success(c, nil, "Extended properties saved")
	}
}

func (h *SchemaHandler) object(kind string, c *gin.Context) catalog.Object {
	s, n := c.Param("schema"), c.Param("name")
	switch kind {
	case "view":
		return &schema.View{Schema: s, Name: n}
	case "command":
		return &schema.Command{Schema: s, SpecificSchema: s, SpecificName: n}
	default:
		return schema.NewTable(s, n)
	}
}
