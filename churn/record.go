// Package churn turns a customer record into a churn prediction using
// artifacts fitted at training time.
package churn

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names a request attribute. Categorical fields double as encoder names.
type Field string

const (
	FieldTenure          Field = "tenure"
	FieldInternetService Field = "InternetService"
	FieldOnlineSecurity  Field = "OnlineSecurity"
	FieldTechSupport     Field = "TechSupport"
	FieldContract        Field = "Contract"
)

// CategoricalFields lists the encoded fields in feature-vector order.
var CategoricalFields = []Field{
	FieldInternetService,
	FieldOnlineSecurity,
	FieldTechSupport,
	FieldContract,
}

var recordFields = append([]Field{FieldTenure}, CategoricalFields...)

// CustomerRecord is the /predict request body.
type CustomerRecord struct {
	Tenure          float64 `json:"tenure"`
	InternetService string  `json:"InternetService"`
	OnlineSecurity  string  `json:"OnlineSecurity"`
	TechSupport     string  `json:"TechSupport"`
	Contract        string  `json:"Contract"`
}

// Category returns the raw value of a categorical field.
func (r CustomerRecord) Category(field Field) string {
	switch field {
	case FieldInternetService:
		return r.InternetService
	case FieldOnlineSecurity:
		return r.OnlineSecurity
	case FieldTechSupport:
		return r.TechSupport
	case FieldContract:
		return r.Contract
	}
	return ""
}

type recordPayload struct {
	Tenure          *float64 `json:"tenure" validate:"required,gte=0"`
	InternetService *string  `json:"InternetService" validate:"required"`
	OnlineSecurity  *string  `json:"OnlineSecurity" validate:"required"`
	TechSupport     *string  `json:"TechSupport" validate:"required"`
	Contract        *string  `json:"Contract" validate:"required"`
}

func (p *recordPayload) target(field Field) interface{} {
	switch field {
	case FieldTenure:
		return &p.Tenure
	case FieldInternetService:
		return &p.InternetService
	case FieldOnlineSecurity:
		return &p.OnlineSecurity
	case FieldTechSupport:
		return &p.TechSupport
	case FieldContract:
		return &p.Contract
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// FieldError is one entry of a validation failure, shaped like the
// framework-standard 422 detail list.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError reports a request body that does not match the schema.
type ValidationError struct {
	Detail []FieldError `json:"detail"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Detail))
	for i, d := range e.Detail {
		parts[i] = fmt.Sprintf("%s: %s", strings.Join(d.Loc, "."), d.Msg)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func bodyError(msg, kind string) *ValidationError {
	return &ValidationError{Detail: []FieldError{{Loc: []string{"body"}, Msg: msg, Type: kind}}}
}

func fieldError(field Field, msg, kind string) FieldError {
	return FieldError{Loc: []string{"body", string(field)}, Msg: msg, Type: kind}
}

// DecodeRecord reads and validates a JSON customer record. Schema failures
// are returned as *ValidationError; every field is checked so the caller sees
// all problems at once.
func DecodeRecord(r io.Reader) (CustomerRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return CustomerRecord{}, bodyError("Field required", "missing")
		case errors.As(err, &typeErr):
			return CustomerRecord{}, bodyError("Input should be a valid dictionary or object to extract fields from", "model_attributes_type")
		default:
			return CustomerRecord{}, bodyError("JSON decode error: "+err.Error(), "json_invalid")
		}
	}
	if raw == nil {
		return CustomerRecord{}, bodyError("Input should be a valid dictionary or object to extract fields from", "model_attributes_type")
	}

	var payload recordPayload
	failed := make(map[Field]FieldError)
	for _, field := range recordFields {
		value, ok := raw[string(field)]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, payload.target(field)); err != nil {
			if field == FieldTenure {
				failed[field] = fieldError(field, "Input should be a valid number", "float_type")
			} else {
				failed[field] = fieldError(field, "Input should be a valid string", "string_type")
			}
		}
	}

	if err := validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return CustomerRecord{}, err
		}
		for _, fe := range verrs {
			field := Field(fe.Field())
			if _, ok := failed[field]; ok {
				continue
			}
			switch fe.Tag() {
			case "required":
				failed[field] = fieldError(field, "Field required", "missing")
			case "gte":
				failed[field] = fieldError(field, "Input should be greater than or equal to "+fe.Param(), "greater_than_equal")
			default:
				failed[field] = fieldError(field, fe.Error(), fe.Tag())
			}
		}
	}

	if len(failed) > 0 {
		verr := &ValidationError{}
		for _, field := range recordFields {
			if fe, ok := failed[field]; ok {
				verr.Detail = append(verr.Detail, fe)
			}
		}
		return CustomerRecord{}, verr
	}

	return CustomerRecord{
		Tenure:          *payload.Tenure,
		InternetService: *payload.InternetService,
		OnlineSecurity:  *payload.OnlineSecurity,
		TechSupport:     *payload.TechSupport,
		Contract:        *payload.Contract,
	}, nil
}
