// Package common holds request pieces shared by the v1 handlers.
package common

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-server/internal/operator/actions"
	"github.com/carson-networks/finance-server/internal/service"
	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/sqlconfig"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

// UserHeader carries the caller identity. Authentication happens upstream;
// the header is trusted.
type UserHeader struct {
	UserID string `header:"X-User-ID" required:"true" minLength:"1" doc:"Identity of the calling user"`
}

// Error maps a service error to an HTTP error, using msg for failures that are
// not the caller's fault.
func Error(err error, msg string) error {
	switch {
	case errors.Is(err, account.ErrNotFound):
		return huma.NewError(http.StatusNotFound, "account not found", err)
	case errors.Is(err, transaction.ErrNotFound):
		return huma.NewError(http.StatusNotFound, "transaction not found", err)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, actions.ErrInvalidTransaction),
		errors.Is(err, actions.ErrInvalidAccount):
		return huma.NewError(http.StatusUnprocessableEntity, err.Error(), err)
	default:
		return huma.NewError(http.StatusInternalServerError, msg, err)
	}
}

// ParseDecimal parses a money field, using fallback when value is empty. Parse
// failures and values finer than a cent are returned as 400s naming the field.
func ParseDecimal(field, value, fallback string) (decimal.Decimal, error) {
	if value == "" {
		value = fallback
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, huma.NewError(http.StatusBadRequest, "invalid "+field, err)
	}
	if !sqlconfig.FitsMoneyScale(d) {
		return decimal.Decimal{}, huma.NewError(http.StatusBadRequest, field+" must have at most 2 decimal places")
	}
	return d, nil
}
