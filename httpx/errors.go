package httpx

import (
	"fmt"
	"net/http"
	"strings"
)

// Error codes carried in the envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodeBusiness     = "BUSINESS_ERROR"
	CodeInternal     = "INTERNAL_ERROR"

	// Business rule codes (400).
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidPayment      = "INVALID_PAYMENT"
	CodeProductInactive     = "PRODUCT_INACTIVE"
	CodeSaleAlreadyRefunded = "SALE_ALREADY_REFUNDED"
	CodeInvalidDiscountCode = "INVALID_DISCOUNT_CODE"
	CodePaymentFailed       = "PAYMENT_FAILED"
)

// AppError is an error that knows how it should be rendered.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *AppError) Error() string { return e.Code + ": " + e.Message }

func NewError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// Validation returns a 400 VALIDATION_ERROR.
func Validation(message string, details any) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "You don't have permission to perform this action"
	}
	return NewError(http.StatusForbidden, CodeForbidden, message)
}

// NotFound builds "<Resource> with id '<id>' not found".
func NotFound(resource string, id any) *AppError {
	msg := resource + " not found"
	if id != nil {
		msg = fmt.Sprintf("%s with id '%v' not found", resource, id)
	}
	return NewError(http.StatusNotFound, CodeNotFound, msg)
}

func Conflict(message string) *AppError {
	return NewError(http.StatusConflict, CodeConflict, message)
}

func RateLimited() *AppError {
	return NewError(http.StatusTooManyRequests, CodeRateLimited, "Too many requests")
}

// Business returns a 400 carrying a business rule code.
func Business(code, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

func InsufficientStock(product string, available, requested int) *AppError {
	return Business(CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for '%s'. Available: %d, Requested: %d", product, available, requested))
}

func ProductInactive(product string) *AppError {
	return Business(CodeProductInactive, fmt.Sprintf("Product '%s' is not active", product))
}

func SaleAlreadyRefunded() *AppError {
	return Business(CodeSaleAlreadyRefunded, "Sale has already been refunded")
}

func InvalidPayment(message string) *AppError {
	return Business(CodeInvalidPayment, message)
}

// Title turns "sale_item" into "Sale item" for error messages.
func Title(resource string) string {
	s := strings.ReplaceAll(resource, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
