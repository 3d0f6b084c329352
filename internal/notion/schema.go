package notion

// FieldType is the subset of Notion property types this integration reads.
type FieldType int

const (
	FieldUnknown FieldType = iota
	FieldTitle
	FieldDate
	FieldStatus
	FieldSelect
)

func ParseFieldType(tag string) FieldType {
	switch tag {
	case "title":
		return FieldTitle
	case "date":
		return FieldDate
	case "status":
		return FieldStatus
	case "select":
		return FieldSelect
	default:
		return FieldUnknown
	}
}

func (f FieldType) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldDate:
		return "date"
	case FieldStatus:
		return "status"
	case FieldSelect:
		return "select"
	default:
		return "unknown"
	}
}

// Schema maps database field names to their type. Fields the API reports
// with a type outside the known set are kept as FieldUnknown.
type Schema map[string]FieldType

// TypeOf reports the type of field; ok is false when the schema is nil or
// the field is not listed.
func (s Schema) TypeOf(field string) (t FieldType, ok bool) {
	if s == nil {
		return FieldUnknown, false
	}
	t, ok = s[field]
	return t, ok
}
