package schema

import "strings"

// DbType is the portable type tag of a column or parameter.
type DbType int

const (
	Object DbType = iota
	Boolean
	Binary
	String
	Date
	Single
	Double
	Int16
	Int32
	Int64
	Decimal
	Time
	DateTime
	DateTimeOffset
	Guid
	Xml
)

var dbTypeNames = [...]string{
	Object:         "Object",
	Boolean:        "Boolean",
	Binary:         "Binary",
	String:         "String",
	Date:           "Date",
	Single:         "Single",
	Double:         "Double",
	Int16:          "Int16",
	Int32:          "Int32",
	Int64:          "Int64",
	Decimal:        "Decimal",
	Time:           "Time",
	DateTime:       "DateTime",
	DateTimeOffset: "DateTimeOffset",
	Guid:           "Guid",
	Xml:            "Xml",
}

func (t DbType) String() string {
	if t < 0 || int(t) >= len(dbTypeNames) {
		return dbTypeNames[Object]
	}
	return dbTypeNames[t]
}

// MarshalText renders the tag name in YAML and JSON documents.
func (t DbType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// nativeTypes maps lower-cased PostgreSQL type names to portable tags.
// Geometric, network and cursor types fall through to Object.
var nativeTypes = map[string]DbType{
	"bit":     Boolean,
	"bool":    Boolean,
	"boolean": Boolean,

	"bytea": Binary,

	"bpchar":            String,
	"char":              String,
	"character":         String,
	"text":              String,
	"varchar":           String,
	"character varying": String,
	"json":              String,
	"jsonb":             String,

	"date": Date,

	"float4":           Single,
	"real":             Single,
	"single precision": Single,
	"float8":           Double,
	"double precision": Double,

	"int2":     Int16,
	"smallint": Int16,
	"int4":     Int32,
	"integer":  Int32,
	"int8":     Int64,
	"bigint":   Int64,

	"money":   Decimal,
	"numeric": Decimal,

	"time":                   Time,
	"timetz":                 Time,
	"time without time zone": Time,
	"time without timezone":  Time,
	"time with time zone":    Time,
	"time with timezone":     Time,

	"interval":                    DateTime,
	"timestamp":                   DateTime,
	"timestamp without time zone": DateTime,
	"timestamp without timezone":  DateTime,

	"timestamptz":              DateTimeOffset,
	"timestamp with time zone": DateTimeOffset,
	"timestamp with timezone":  DateTimeOffset,

	"uuid": Guid,
	"xml":  Xml,
}

// MapType maps a native type name to its portable tag. Both the catalog array
// form ("_int4") and the normalized form ("int4[]") set isArray. Unknown names
// map to Object.
func MapType(native string) (t DbType, isArray bool) {
	name, isArray := baseType(strings.ToLower(strings.TrimSpace(native)))
	if t, ok := nativeTypes[name]; ok {
		return t, isArray
	}
	return Object, isArray
}

// NormalizeNative rewrites a catalog array udt name ("_int4") to "int4[]".
func NormalizeNative(udt string) string {
	if base, ok := strings.CutPrefix(udt, "_"); ok && base != "" {
		return base + "[]"
	}
	return udt
}

func baseType(name string) (string, bool) {
	if base, ok := strings.CutSuffix(name, "[]"); ok {
		return base, true
	}
	if base, ok := strings.CutPrefix(name, "_"); ok && base != "" {
		return base, true
	}
	return name, false
}

func isVoidType(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "void")
}
