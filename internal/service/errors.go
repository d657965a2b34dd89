package service

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrProductUnavailable = errors.New("product is sold out")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrOrderAccessDenied  = errors.New("order does not belong to this email")
	ErrInvalidAmount      = errors.New("amount must not be negative")
)

// FieldError is a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every rejected field of one request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// orNil keeps a nil error interface when nothing was rejected.
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
