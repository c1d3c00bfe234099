package dto

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mrops-br/products-rbac-api/internal/domain"
)

const bodyLocation = "body"

var integerPattern = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*)$`)

var validate = newValidator()

var createMessages = map[string]string{
	"title":          "Title is required",
	"description":    "Description is required",
	"inventoryCount": "Inventory count is required",
}

var updateMessages = map[string]string{
	"title":          "Title must be text",
	"description":    "Description must be text",
	"inventoryCount": "Inventory count must be an integer",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	checks := map[string]validator.Func{
		"integer": func(fl validator.FieldLevel) bool {
			_, ok := ParseInteger(fl.Field().Interface())
			return ok
		},
		"text": func(fl validator.FieldLevel) bool {
			s, ok := Stringify(fl.Field().Interface())
			return ok && s != ""
		},
		"falsy": func(fl validator.FieldLevel) bool {
			return !Truthy(fl.Field().Interface())
		},
	}
	for tag, fn := range checks {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return v
}

// Truthy reports whether a decoded JSON value counts as set: null, false,
// "" and numeric zero do not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return true
	}
}

// Stringify renders a scalar JSON value as stored text. Objects and arrays
// have no text form.
func Stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		f, err := x.Float64()
		if err != nil {
			return x.String(), true
		}
		return formatNumber(f), true
	case float64:
		return formatNumber(x), true
	case int:
		return strconv.Itoa(x), true
	default:
		return "", false
	}
}

func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseInteger accepts whole JSON numbers and strings of decimal digits with
// an optional sign.
func ParseInteger(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return wholeNumber(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return wholeNumber(f)
	case string:
		if !integerPattern.MatchString(x) {
			return 0, false
		}
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// wholeNumber converts f when it is an integer inside the int64 range.
// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
func wholeNumber(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}

// Validate checks the request and builds the product to insert
func (r *CreateProductRequest) Validate() (*domain.Product, error) {
	if err := check(r, createMessages); err != nil {
		return nil, err
	}
	title, _ := Stringify(r.Title)
	description, _ := Stringify(r.Description)
	count, _ := ParseInteger(r.InventoryCount)
	return domain.NewProduct(title, description, count), nil
}

// Patch checks the request and returns the fields to overwrite
func (r *UpdateProductRequest) Patch() (domain.ProductPatch, error) {
	var patch domain.ProductPatch
	if err := check(r, updateMessages); err != nil {
		return patch, err
	}

	if Truthy(r.Title) {
		title, _ := Stringify(r.Title)
		patch.Title = &title
	}
	if Truthy(r.Description) {
		description, _ := Stringify(r.Description)
		patch.Description = &description
	}
	// "0" is truthy and sets the count to zero; the number 0 does not
	if Truthy(r.InventoryCount) {
		count, _ := ParseInteger(r.InventoryCount)
		patch.InventoryCount = &count
	}
	return patch, nil
}

// BodyError reports an undecodable request body in the same shape as field
// validation failures.
func BodyError() *domain.ValidationError {
	return &domain.ValidationError{Fields: []domain.FieldError{{
		Msg:      "Invalid JSON body",
		Location: bodyLocation,
	}}}
}

func check(req any, messages map[string]string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = "Invalid value"
		}
		verr.Fields = append(verr.Fields, domain.FieldError{
			Value:    fe.Value(),
			Msg:      msg,
			Param:    fe.Field(),
			Location: bodyLocation,
		})
	}
	return verr
}
