package schema

import "github.com/jackc/pgx/v5"

// ObjectKey returns the canonical identity of a schema-scoped object. Parts are
// quoted with embedded quotes doubled, so distinct tuples never collide.
func ObjectKey(schemaName, name string) string {
	return pgx.Identifier{schemaName, name}.Sanitize()
}

// MemberKey returns the identity of an object scoped to a table (index, constraint).
func MemberKey(schemaName, table, name string) string {
	return pgx.Identifier{schemaName, table, name}.Sanitize()
}

// TableKeyKey returns the identity of a foreign key: the referenced table and
// constraint name, followed by the referencing table.
func TableKeyKey(refSchema, refTable, constraint, schemaName, table string) string {
	return MemberKey(refSchema, refTable, constraint) + "." + ObjectKey(schemaName, table)
}
