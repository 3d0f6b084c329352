package notion

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jomei/notionapi"

	"notion-herald/internal/config"
	"notion-herald/internal/util"
)

// DefaultStatus is written when a row carries no status.
const DefaultStatus = "Not Started"

// Row is one submitted JSON object. Only title, date and status are read.
type Row map[string]any

// Property is a single outbound property value. Every implementation
// marshals to the JSON shape the pages endpoint expects for its type, and
// satisfies notionapi.Property so it can ride in a PageCreateRequest.
type Property interface {
	notionapi.Property
	json.Marshaler
}

// Properties is the payload for a page create, keyed by field name.
type Properties map[string]Property

type TitleValue struct {
	Text string
}

func (TitleValue) GetID() string                  { return "" }
func (TitleValue) GetType() notionapi.PropertyType { return notionapi.PropertyTypeTitle }

func (v TitleValue) MarshalJSON() ([]byte, error) {
	type text struct {
		Content string `json:"content"`
	}
	type richText struct {
		Type string `json:"type"`
		Text text   `json:"text"`
	}
	return json.Marshal(map[string][]richText{
		"title": {{Type: "text", Text: text{Content: v.Text}}},
	})
}

// DateValue is a date property. A Cleared value marshals as {"date": null}.
// Range values always carry both start and end keys; a scalar carries start only.
type DateValue struct {
	Cleared  bool
	Range    bool
	Start    *string
	End      *string
	TimeZone string
}

func (DateValue) GetID() string                  { return "" }
func (DateValue) GetType() notionapi.PropertyType { return notionapi.PropertyTypeDate }

func (v DateValue) MarshalJSON() ([]byte, error) {
	if v.Cleared {
		return []byte(`{"date":null}`), nil
	}
	body := map[string]any{"start": v.Start}
	if v.Range {
		body["end"] = v.End
	}
	if v.TimeZone != "" {
		body["time_zone"] = v.TimeZone
	}
	return json.Marshal(map[string]any{"date": body})
}

// OptionValue is a status or select property; Kind picks the JSON key.
type OptionValue struct {
	Kind FieldType
	Name string
}

func (OptionValue) GetID() string { return "" }

func (v OptionValue) GetType() notionapi.PropertyType {
	if v.Kind == FieldSelect {
		return notionapi.PropertyTypeSelect
	}
	return notionapi.PropertyTypeStatus
}

func (v OptionValue) MarshalJSON() ([]byte, error) {
	type option struct {
		Name string `json:"name"`
	}
	return json.Marshal(map[string]option{string(v.GetType()): {Name: v.Name}})
}

// BuildProperties maps row onto the database fields named by m. The date
// field is only touched when the row has a date key; a falsy date clears it.
// The status field is written as a select when schema says so and as a
// status otherwise, including when schema is nil.
func BuildProperties(row Row, m config.ColumnMapping, schema Schema) Properties {
	props := Properties{}

	props[m.Title] = TitleValue{Text: stringify(row["title"])}

	if v, ok := row["date"]; ok {
		props[m.Date] = buildDate(v)
	}

	status := DefaultStatus
	if v, ok := row["status"]; ok && v != nil {
		status = stringify(v)
	}
	kind := FieldStatus
	if t, ok := schema.TypeOf(m.Status); ok && t == FieldSelect {
		kind = FieldSelect
	}
	props[m.Status] = OptionValue{Kind: kind, Name: status}

	return props
}

func buildDate(v any) DateValue {
	if !truthy(v) {
		return DateValue{Cleared: true}
	}
	if obj, ok := dateObject(v); ok {
		d := DateValue{Range: true}
		if s := obj["start"]; truthy(s) {
			c := util.ToCanonical(s)
			d.Start = &c
		}
		if e := obj["end"]; truthy(e) {
			c := util.ToCanonical(e)
			d.End = &c
		}
		if tz, ok := obj["time_zone"].(string); ok && tz != "" {
			d.TimeZone = tz
		}
		return d
	}
	c := util.ToCanonical(v)
	return DateValue{Start: &c}
}

// dateObject reports whether v is the {start, end?, time_zone?} form.
func dateObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	_, hasStart := obj["start"]
	_, hasEnd := obj["end"]
	return obj, hasStart || hasEnd
}

// truthy follows JSON-ish falsiness: nil, false, 0 and "" are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case json.Number:
		return x != "" && x != "0"
	default:
		return true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
