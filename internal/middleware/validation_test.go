package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactRequest struct {
	Name   string `json:"customer_name" validate:"required"`
	Phone  string `json:"customer_phone" validate:"required,thaiphone"`
	Email  string `json:"customer_email" validate:"required,email"`
	Status string `json:"status,omitempty" validate:"omitempty,orderstatus"`
}

func decodeContact(t *testing.T, body map[string]interface{}) error {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(raw))
	var dst contactRequest
	return DecodeAndValidate(req, &dst)
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a request passes only when every required field is present", prop.ForAll(
		func(withName, withPhone, withEmail bool) bool {
			body := map[string]interface{}{}
			if withName {
				body["customer_name"] = "Somchai"
			}
			if withPhone {
				body["customer_phone"] = "0812345678"
			}
			if withEmail {
				body["customer_email"] = "somchai@example.com"
			}

			err := decodeContact(t, body)
			if withName && withPhone && withEmail {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ThaiPhoneAcceptsExactlyTenDigits(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("phone numbers of ten digits pass", prop.ForAll(
		func(phone string) bool {
			return ValidPhone(phone)
		},
		gen.RegexMatch(`[0-9]{10}`),
	))

	properties.Property("other lengths fail", prop.ForAll(
		func(phone string) bool {
			return !ValidPhone(phone)
		},
		gen.RegexMatch(`[0-9]{1,9}|[0-9]{11,14}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesJSONNames(t *testing.T) {
	err := decodeContact(t, map[string]interface{}{
		"customer_name":  "Somchai",
		"customer_phone": "08-123-4567",
		"customer_email": "not-an-email",
		"status":         "lost",
	})
	require.Error(t, err)

	errs := FormatValidationErrors(err)
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Message
	}

	assert.Equal(t, "Phone number must be 10 digits", fields["customer_phone"])
	assert.Equal(t, "Invalid email format", fields["customer_email"])
	assert.Equal(t, "Unknown order status", fields["status"])
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader("{"))
	var dst contactRequest

	err := DecodeAndValidate(req, &dst)

	require.Error(t, err)
	assert.Empty(t, FormatValidationErrors(err))

	w := httptest.NewRecorder()
	RespondWithDecodeError(w, err)
	assert.Equal(t, 400, w.Code)
}
