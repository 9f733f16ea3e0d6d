package invitation

import (
	"sort"
)

// FieldSchema lists the form fields an invitation row keeps. Anything else in
// the submitted form data is dropped with a warning.
type FieldSchema struct {
	Version int
	Fields  []string
}

// SchemaV1 covers the fields used by the bundled wedding templates.
var SchemaV1 = FieldSchema{
	Version: 1,
	Fields: []string{
		"brideName",
		"brideFullName",
		"brideParents",
		"groomName",
		"groomFullName",
		"groomParents",
		"weddingDate",
		"akadDate",
		"akadTime",
		"akadVenue",
		"receptionDate",
		"receptionTime",
		"receptionVenue",
		"venueAddress",
		"mapLink",
		"quote",
		"message",
		"rsvpContact",
		"giftAccount",
	},
}

// guests is consumed by the generation workflow and never stored.
const guestsField = "guests"

// WithExtraFields returns a copy of s that also accepts extra.
func (s FieldSchema) WithExtraFields(extra ...string) FieldSchema {
	out := FieldSchema{Version: s.Version, Fields: append([]string(nil), s.Fields...)}
	known := s.fieldSet()
	for _, f := range extra {
		if f == "" || f == guestsField {
			continue
		}
		if _, ok := known[f]; ok {
			continue
		}
		known[f] = struct{}{}
		out.Fields = append(out.Fields, f)
	}
	return out
}

func (s FieldSchema) fieldSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		set[f] = struct{}{}
	}
	return set
}

// Filter keeps the schema's fields from formData. Non-string values are stored
// as empty strings. The returned slice holds the ignored keys, sorted.
func (s FieldSchema) Filter(formData map[string]interface{}) (map[string]string, []string) {
	known := s.fieldSet()
	fields := make(map[string]string)
	var ignored []string

	for key, value := range formData {
		if key == guestsField {
			continue
		}
		if _, ok := known[key]; !ok {
			ignored = append(ignored, key)
			continue
		}
		str, _ := value.(string)
		fields[key] = str
	}

	sort.Strings(ignored)
	return fields, ignored
}
