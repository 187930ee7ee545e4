package schema

import "fmt"

// Extended property names understood by code-generation hosts.
const (
	PropDefault          = "CS_Default"
	PropIsIdentity       = "CS_IsIdentity"
	PropSystemType       = "CS_SystemType"
	PropUserDefinedType  = "CS_UserDefinedType"
	PropCascadeDelete    = "CS_CascadeDelete"
	PropCascadeUpdate    = "CS_CascadeUpdate"
	PropIsScalarFunction = "CS_IsScalarFunction"
	PropIsProcedure      = "CS_IsProcedure"
	PropSpecificName     = "specific_name"
	PropSpecificSchema   = "specific_schema"
)

// PropertyType is the value type of an extended property.
type PropertyType string

const (
	PropertyString  PropertyType = "string"
	PropertyBoolean PropertyType = "boolean"
)

// ExtendedProperty is a read-only key/value attached to an entity when the
// portable model has no dedicated field for it.
type ExtendedProperty struct {
	Name  string       `json:"name" yaml:"name"`
	Value any          `json:"value" yaml:"value"`
	Type  PropertyType `json:"type" yaml:"type"`
}

// Properties is an ordered property bag.
type Properties []ExtendedProperty

// StringProperty builds a string-valued property.
func StringProperty(name, value string) ExtendedProperty {
	return ExtendedProperty{Name: name, Value: value, Type: PropertyString}
}

// BoolProperty builds a boolean-valued property.
func BoolProperty(name string, value bool) ExtendedProperty {
	return ExtendedProperty{Name: name, Value: value, Type: PropertyBoolean}
}

// Get returns the named property.
func (p Properties) Get(name string) (ExtendedProperty, bool) {
	for _, e := range p {
		if e.Name == name {
			return e, true
		}
	}
	return ExtendedProperty{}, false
}

// String returns the named property formatted as a string, or "" if absent.
func (p Properties) String(name string) string {
	e, ok := p.Get(name)
	if !ok || e.Value == nil {
		return ""
	}
	if s, ok := e.Value.(string); ok {
		return s
	}
	return fmt.Sprint(e.Value)
}

// IsSequenceDefault reports whether def is the default generated for a serial
// column: nextval('<table>_<column>_seq'::regclass), with the sequence name
// optionally double-quoted.
func IsSequenceDefault(table, column, def string) bool {
	seq := table + "_" + column + "_seq"
	return def == "nextval('"+seq+"'::regclass)" ||
		def == `nextval('"`+seq+`"'::regclass)`
}
