package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// CreatePurchaseOrderRequest is the input of CreatePurchaseOrder. Optional
// fields fall back to the product's policy.
type CreatePurchaseOrderRequest struct {
	ProductID            uuid.UUID        `json:"productId" validate:"required"`
	Quantity             float64          `json:"quantity" validate:"gt=0"`
	Supplier             string           `json:"supplier" validate:"omitempty,max=255"`
	UnitPrice            *decimal.Decimal `json:"unitPrice"`
	OrderDate            *time.Time       `json:"orderDate"`
	ExpectedDeliveryDate *time.Time       `json:"expectedDeliveryDate"`
	LeadTimeDays         *int             `json:"leadTimeDays" validate:"omitempty,gte=0"`
	Notes                *string          `json:"notes"`
}

// UpdatePurchaseOrderStatusRequest is the input of UpdatePurchaseOrderStatus.
type UpdatePurchaseOrderStatusRequest struct {
	Status             string     `json:"status" validate:"required"`
	ActualDeliveryDate *time.Time `json:"actualDeliveryDate"`
	TrackingNumber     *string    `json:"trackingNumber"`
	InvoiceNumber      *string    `json:"invoiceNumber"`
	Notes              *string    `json:"notes"`
}

var validate = validator.New()

// validateStruct runs struct tag validation and maps failures to
// domain.ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}
