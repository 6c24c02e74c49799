package purchase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/gig-tickets/internal/domain"
)

const (
	fieldGig                = "gig"
	fieldName               = "name"
	fieldEmail              = "email"
	fieldCardNumber         = "cardNumber"
	fieldCardExpiryMonth    = "cardExpiryMonth"
	fieldCardExpiryYear     = "cardExpiryYear"
	fieldCardCVC            = "cardCVC"
	fieldDisclaimerAccepted = "disclaimerAccepted"

	msgMandatory = "field is mandatory"
)

var mandatoryFields = []string{
	fieldGig,
	fieldName,
	fieldEmail,
	fieldCardNumber,
	fieldCardExpiryMonth,
	fieldCardExpiryYear,
	fieldCardCVC,
	fieldDisclaimerAccepted,
}

var cvcPattern = regexp.MustCompile(`^[0-9]{3,4}$`)

// Validator checks a raw purchase payload. It is safe for concurrent use.
type Validator struct {
	v       *validator.Validate
	yearMin int
	yearMax int
}

func NewValidator(yearMin, yearMax int) *Validator {
	return &Validator{
		v:       validator.New(),
		yearMin: yearMin,
		yearMax: yearMax,
	}
}

// Validate returns domain.ErrMalformedPayload when raw is not a JSON object,
// and a validation error listing every failed field otherwise.
func (val *Validator) Validate(raw []byte) (domain.PurchaseRequest, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return domain.PurchaseRequest{}, domain.MalformedPayload(err)
	}

	var errs []domain.FieldError
	add := func(field, msg string) {
		errs = append(errs, domain.FieldError{Field: field, Message: msg})
	}

	present := make(map[string]bool, len(mandatoryFields))
	for _, f := range mandatoryFields {
		if isMissing(data[f]) {
			add(f, msgMandatory)
			continue
		}
		present[f] = true
	}

	var req domain.PurchaseRequest

	for _, f := range []string{fieldGig, fieldName} {
		if !present[f] {
			continue
		}
		s, ok := data[f].(string)
		if !ok {
			add(f, "field must be a string")
			continue
		}
		if f == fieldGig {
			req.GigSlug = strings.TrimSpace(s)
		} else {
			req.Name = strings.TrimSpace(s)
		}
	}

	if present[fieldEmail] {
		s, ok := data[fieldEmail].(string)
		s = strings.TrimSpace(s)
		if !ok || val.v.Var(s, "email") != nil {
			add(fieldEmail, "field is not a valid email")
		} else {
			req.Email = s
		}
	}

	if present[fieldCardNumber] {
		s, ok := scalarText(data[fieldCardNumber])
		if !ok || val.v.Var(s, "credit_card") != nil {
			add(fieldCardNumber, "field is not a valid credit card number")
		} else {
			req.CardNumber = s
		}
	}

	if present[fieldCardExpiryMonth] {
		n, ok := intInRange(data[fieldCardExpiryMonth], 1, 12)
		if !ok {
			add(fieldCardExpiryMonth, "field must be an integer in range [1,12]")
		} else {
			req.CardExpiryMonth = n
		}
	}

	if present[fieldCardExpiryYear] {
		n, ok := intInRange(data[fieldCardExpiryYear], val.yearMin, val.yearMax)
		if !ok {
			add(fieldCardExpiryYear, fmt.Sprintf("field must be an integer in range [%d,%d]", val.yearMin, val.yearMax))
		} else {
			req.CardExpiryYear = n
		}
	}

	if present[fieldCardCVC] {
		s, ok := scalarText(data[fieldCardCVC])
		if !ok || !cvcPattern.MatchString(s) {
			add(fieldCardCVC, "field must be a valid CVC")
		} else {
			req.CardCVC = s
		}
	}

	if present[fieldDisclaimerAccepted] {
		if b, ok := data[fieldDisclaimerAccepted].(bool); !ok || !b {
			add(fieldDisclaimerAccepted, "field must be true")
		} else {
			req.DisclaimerAccepted = true
		}
	}

	if len(errs) > 0 {
		return domain.PurchaseRequest{}, domain.ValidationFailed(errs)
	}
	return req, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("payload is null")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON object")
	}
	return data, nil
}

// isMissing treats absent keys, null and blank strings as not provided.
func isMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// scalarText accepts strings and JSON numbers, so "123" and 123 both work.
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

func intInRange(v any, min, max int) (int, bool) {
	s, ok := scalarText(v)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}
