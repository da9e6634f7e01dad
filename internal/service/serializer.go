package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	msgRequired      = "This field is required."
	msgNull          = "This field may not be null."
	msgBlank         = "This field may not be blank."
	msgInvalidNumber = "A valid number is required."
	msgInvalidInt    = "A valid integer is required."
	msgNotString     = "Not a valid string."
)

// Payload is a decoded JSON request body keyed by field name.
type Payload map[string]json.RawMessage

func DecodePayload(body []byte) (Payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Payload{}, nil
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

// fieldSet lists the writable fields of a serializer. Variants are derived
// with readOnly instead of redeclaring the base set.
type fieldSet struct {
	writable []string
}

func (s fieldSet) readOnly(names ...string) fieldSet {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := fieldSet{}
	for _, f := range s.writable {
		if !drop[f] {
			out.writable = append(out.writable, f)
		}
	}
	return out
}

func (s fieldSet) has(name string) bool {
	for _, f := range s.writable {
		if f == name {
			return true
		}
	}
	return false
}

// take returns the raw value of a writable field. Missing fields are
// reported as required unless partial is set.
func (s fieldSet) take(p Payload, name string, partial bool, verr *ValidationError) (json.RawMessage, bool) {
	if !s.has(name) {
		return nil, false
	}
	raw, ok := p[name]
	if !ok {
		if !partial {
			verr.Add(name, msgRequired)
		}
		return nil, false
	}
	if isNull(raw) {
		verr.Add(name, msgNull)
		return nil, false
	}
	return raw, true
}

var (
	productSerializer       = fieldSet{writable: []string{"name", "price", "rating"}}
	productRatingSerializer = productSerializer.readOnly("name", "price")
	ratingSerializer        = fieldSet{writable: []string{"user", "product", "rating"}}
	ratingDetailSerializer  = ratingSerializer.readOnly("user", "product")
)

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// scalarText returns the text of a JSON number or string.
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw), true
	}
	return "", false
}

// parseString accepts a JSON string or number; numbers keep their literal
// text, so "name": 12 becomes "12".
func parseString(raw json.RawMessage) (string, error) {
	text, ok := scalarText(raw)
	if !ok {
		return "", errors.New(msgNotString)
	}
	return text, nil
}

func parseFloat(raw json.RawMessage) (float64, error) {
	text, ok := scalarText(raw)
	if !ok {
		return 0, errors.New(msgInvalidNumber)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New(msgInvalidNumber)
	}
	return f, nil
}

var trailingZeroFraction = regexp.MustCompile(`\.0*\s*$`)

func parseInt(raw json.RawMessage) (int, error) {
	text, ok := scalarText(raw)
	if !ok {
		return 0, errors.New(msgInvalidInt)
	}
	n, err := strconv.Atoi(trailingZeroFraction.ReplaceAllString(text, ""))
	if err != nil {
		return 0, errors.New(msgInvalidInt)
	}
	return n, nil
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	text, ok := scalarText(raw)
	if !ok {
		return decimal.Decimal{}, errors.New(msgInvalidNumber)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, errors.New(msgInvalidNumber)
	}
	return d, nil
}

func parsePK(raw json.RawMessage) (uint, error) {
	trimmed := bytes.TrimSpace(raw)
	text, ok := scalarText(trimmed)
	if ok {
		if n, err := strconv.ParseUint(text, 10, 64); err == nil && n > 0 {
			return uint(n), nil
		}
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			return 0, fmt.Errorf("Invalid pk \"%s\" - object does not exist.", text)
		}
	}
	return 0, fmt.Errorf("Incorrect type. Expected pk value, received %s.", jsonTypeName(trimmed))
}

func jsonTypeName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "str"
	}
	switch raw[0] {
	case '"':
		return "str"
	case 't', 'f':
		return "bool"
	case '[':
		return "list"
	case '{':
		return "dict"
	default:
		return "float"
	}
}

func pkMissing(id uint) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

// checkDecimal enforces a decimal(maxDigits, places) column the way the
// digits are written, so "2.500" has three decimal places.
func checkDecimal(d decimal.Decimal, maxDigits, places int) string {
	digits := len(new(big.Int).Abs(d.Coefficient()).String())
	exp := int(d.Exponent())

	var total, whole, decimals int
	switch {
	case exp >= 0:
		total = digits + exp
		whole = total
	case digits > -exp:
		total = digits
		decimals = -exp
		whole = total - decimals
	default:
		decimals = -exp
		total = decimals
	}

	switch {
	case total > maxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", maxDigits)
	case decimals > places:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", places)
	case whole > maxDigits-places:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxDigits-places)
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and folds failures into verr.
func validateStruct(s any, verr *ValidationError) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(NonFieldErrors, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		if isString && fe.Param() == "1" {
			return msgBlank
		}
		if isString {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	}
	return fmt.Sprintf("Invalid value (%s).", fe.Tag())
}
