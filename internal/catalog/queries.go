package catalog

// Catalog queries. information_schema domains are cast to plain types so the
// driver decodes them without registered codecs. Every filter is a bind
// parameter; an empty $1 schema list means "all non-system schemas".

const queryTables = `
	SELECT table_schema::text AS table_schema,
		table_name::text AS table_name
	FROM information_schema.tables
	WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		AND table_type = 'BASE TABLE'
		AND table_name <> 'CODESMITH_EXTENDED_PROPERTIES'
		AND (cardinality($1::text[]) = 0 OR table_schema = ANY($1))
	ORDER BY table_name, table_schema`

const queryColumns = `
	SELECT table_schema::text AS table_schema,
		table_name::text AS table_name,
		column_name::text AS column_name,
		ordinal_position::int AS ordinal_position,
		column_default::text AS column_default,
		is_nullable::text AS is_nullable,
		data_type::text AS data_type,
		character_maximum_length::int AS character_maximum_length,
		numeric_precision::int AS numeric_precision,
		numeric_scale::int AS numeric_scale,
		udt_name::text AS udt_name
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

// queryIndexes returns one row per (index, member column) in index key order.
// Expression members have no attribute and drop out of the join.
const queryIndexes = `
	SELECT n.nspname::text AS table_schema,
		c.relname::text AS table_name,
		i.relname::text AS index_name,
		a.attname::text AS column_name,
		x.indisunique AS is_unique,
		x.indisprimary AS is_primary,
		x.indisclustered AS is_clustered
	FROM pg_catalog.pg_index x
	JOIN pg_catalog.pg_class c ON c.oid = x.indrelid
	JOIN pg_catalog.pg_class i ON i.oid = x.indexrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	CROSS JOIN LATERAL unnest(x.indkey) WITH ORDINALITY AS k(attnum, ord)
	JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
	WHERE c.relkind IN ('r', 'p') AND i.relkind IN ('i', 'I')
		AND n.nspname = $1
		AND c.relname = $2
	ORDER BY i.relname, k.ord`

// queryForeignKeys returns one row per referencing/referenced column pair.
const queryForeignKeys = `
	SELECT con.conname::text AS constraint_name,
		fn.nspname::text AS table_schema,
		fc.relname::text AS table_name,
		fa.attname::text AS column_name,
		rn.nspname::text AS reference_table_schema,
		rc.relname::text AS reference_table_name,
		ra.attname::text AS reference_column_name,
		con.confupdtype::text AS on_update,
		con.confdeltype::text AS on_delete
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class fc ON fc.oid = con.conrelid
	JOIN pg_catalog.pg_namespace fn ON fn.oid = fc.relnamespace
	JOIN pg_catalog.pg_class rc ON rc.oid = con.confrelid
	JOIN pg_catalog.pg_namespace rn ON rn.oid = rc.relnamespace
	CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS u(attnum, refattnum, ord)
	JOIN pg_catalog.pg_attribute fa ON fa.attrelid = con.conrelid AND fa.attnum = u.attnum
	JOIN pg_catalog.pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = u.refattnum
	WHERE con.contype = 'f'
		AND fn.nspname = $1
		AND fc.relname = $2
	ORDER BY con.conname, u.ord`

const queryViews = `
	SELECT table_schema::text AS table_schema,
		table_name::text AS table_name
	FROM information_schema.views
	WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		AND (cardinality($1::text[]) = 0 OR table_schema = ANY($1))
	ORDER BY table_name, table_schema`

const queryViewText = `
	SELECT view_definition::text AS view_definition
	FROM information_schema.views
	WHERE table_schema = $1 AND table_name = $2`

const queryRoutines = `
	SELECT specific_schema::text AS specific_schema,
		specific_name::text AS specific_name,
		routine_schema::text AS routine_schema,
		routine_name::text AS routine_name,
		routine_type::text AS routine_type,
		data_type::text AS data_type,
		type_udt_name::text AS type_udt_name
	FROM information_schema.routines
	WHERE routine_schema NOT IN ('pg_catalog', 'information_schema')
		AND (cardinality($1::text[]) = 0 OR routine_schema = ANY($1))
	ORDER BY routine_name, specific_name`

const queryParameters = `
	SELECT specific_schema::text AS specific_schema,
		specific_name::text AS specific_name,
		ordinal_position::int AS ordinal_position,
		parameter_mode::text AS parameter_mode,
		parameter_name::text AS parameter_name,
		data_type::text AS data_type,
		udt_name::text AS udt_name,
		character_maximum_length::int AS character_maximum_length,
		numeric_precision::int AS numeric_precision,
		numeric_scale::int AS numeric_scale
	FROM information_schema.parameters
	WHERE specific_schema = $1 AND specific_name = $2
	ORDER BY ordinal_position`

const queryRoutineText = `
	SELECT routine_definition::text AS routine_definition
	FROM information_schema.routines
	WHERE specific_schema = $1 AND specific_name = $2`
