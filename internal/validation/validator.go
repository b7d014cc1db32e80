// README: Schema validator; checks inbound bodies and classifier output against fixed JSON Schemas before any work starts.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"wondura/internal/types"
)

// FieldError names one violated field. Field uses dotted paths ("extracted.date"); "(root)" means the body itself.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a document does not match its schema.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsError unwraps err into a *Error when it is one.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

const nullableString = `{"type": ["string", "null"]}`

var userQuerySchema = `{
	"type": "object",
	"properties": {
		"destination": ` + nullableString + `,
		"dates": ` + nullableString + `,
		"activity1": ` + nullableString + `,
		"activity2": ` + nullableString + `,
		"activity3": ` + nullableString + `,
		"dealmaker": ` + nullableString + `
	}
}`

var extractedSchema = `{
	"type": "object",
	"required": ["activity", "destination", "date", "deal_maker"],
	"properties": {
		"activity": ` + nullableString + `,
		"destination": ` + nullableString + `,
		"date": ` + nullableString + `,
		"deal_maker": ` + nullableString + `
	}
}`

var routingEnum = `{"type": "string", "enum": ["Details", "Options_Destinations", "Options_Activities", "Options_Both", "Unknown"]}`

var routingDecisionSchema = `{
	"type": "object",
	"required": ["routing", "extracted"],
	"properties": {
		"routing": ` + routingEnum + `,
		"extracted": ` + extractedSchema + `
	}
}`

// Clarity labels are only type-checked here; the classifier reads them case-insensitively
// and ignores labels it does not know.
var clarityLabel = `{"type": "string"}`

var classifierOutputSchema = `{
	"type": "object",
	"required": ["routing", "extracted"],
	"properties": {
		"routing": ` + routingEnum + `,
		"where": ` + clarityLabel + `,
		"what": ` + clarityLabel + `,
		"extracted": ` + extractedSchema + `
	}
}`

// Validator holds the compiled schemas. It is safe for concurrent use.
type Validator struct {
	userQuery        *gojsonschema.Schema
	routingDecision  *gojsonschema.Schema
	classifierOutput *gojsonschema.Schema
}

// New compiles the fixed schemas.
func New() (*Validator, error) {
	uq, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(userQuerySchema))
	if err != nil {
		return nil, fmt.Errorf("compile user query schema: %w", err)
	}
	rd, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(routingDecisionSchema))
	if err != nil {
		return nil, fmt.Errorf("compile routing decision schema: %w", err)
	}
	co, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(classifierOutputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile classifier output schema: %w", err)
	}
	return &Validator{userQuery: uq, routingDecision: rd, classifierOutput: co}, nil
}

// MustNew is New for package-level wiring and tests; the schemas are constants so failure is a programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// UserQuery validates body and decodes it. Blank strings come back as nil.
func (v *Validator) UserQuery(body []byte) (types.UserQuery, error) {
	var q types.UserQuery
	if err := v.check(v.userQuery, body, &q); err != nil {
		return types.UserQuery{}, err
	}
	return q.Normalize(), nil
}

// RoutingDecision validates body as a routing decision and decodes it. Blank extracted strings come back as nil.
func (v *Validator) RoutingDecision(body []byte) (types.RoutingDecision, error) {
	var d types.RoutingDecision
	if err := v.check(v.routingDecision, body, &d); err != nil {
		return types.RoutingDecision{}, err
	}
	d.Extracted = normalizeExtracted(d.Extracted)
	return d, nil
}

// ClassifierOutput is the decision the classification model returns, plus its optional clarity labels.
type ClassifierOutput struct {
	types.RoutingDecision
	Where string `json:"where,omitempty"`
	What  string `json:"what,omitempty"`
}

// ClassifierOutput validates a model-produced document.
func (v *Validator) ClassifierOutput(doc []byte) (ClassifierOutput, error) {
	var out ClassifierOutput
	if err := v.check(v.classifierOutput, doc, &out); err != nil {
		return ClassifierOutput{}, err
	}
	out.Extracted = normalizeExtracted(out.Extracted)
	return out, nil
}

func (v *Validator) check(schema *gojsonschema.Schema, body []byte, dst any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return &Error{Fields: []FieldError{{Field: "(root)", Message: "body is not valid JSON"}}}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		return &Error{Fields: fieldErrors(result.Errors())}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Fields: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return nil
}

func fieldErrors(errs []gojsonschema.ResultError) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		field := e.Field()
		if e.Type() == "required" {
			if prop, ok := e.Details()["property"].(string); ok {
				if field == "(root)" || field == "" {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		}
		out = append(out, FieldError{Field: field, Message: e.Description()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func normalizeExtracted(e types.ExtractedFields) types.ExtractedFields {
	return types.ExtractedFields{
		Activity:    types.Present(e.Activity),
		Destination: types.Present(e.Destination),
		Date:        types.Present(e.Date),
		DealMaker:   types.Present(e.DealMaker),
	}
}
