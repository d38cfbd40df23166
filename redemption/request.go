package redemption

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidRequest is returned when a request fails field validation.
var ErrInvalidRequest = errors.New("invalid redemption request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Merchant identifies the point of sale issuing redemptions.
type Merchant struct {
	MerchantID string `validate:"required"`
	LocationID string `validate:"required"`
	PosID      string `validate:"required"`
}

// Request is one redemption attempt. Each attempt owns its own value.
type Request struct {
	GiftCardID    string `json:"-" validate:"required"`
	AmountMinor   int64  `json:"amountMinor" validate:"gt=0"`
	TaxMinor      int64  `json:"taxMinor" validate:"gte=0"`
	MerchantID    string `json:"merchantId" validate:"required"`
	LocationID    string `json:"locationId" validate:"required"`
	PosID         string `json:"posId" validate:"required"`
	ReceiptNumber string `json:"receiptNumber" validate:"required"`

	// AttemptID correlates the request with logs and audit events. It is sent
	// as a header, never in the body.
	AttemptID uuid.UUID `json:"-"`
}

// NewRequest builds a validated request. giftCardID is trimmed; tax is always zero.
func NewRequest(giftCardID string, amountMinor int64, merchant Merchant, receiptNumber string) (Request, error) {
	req := Request{
		GiftCardID:    strings.TrimSpace(giftCardID),
		AmountMinor:   amountMinor,
		TaxMinor:      0,
		MerchantID:    merchant.MerchantID,
		LocationID:    merchant.LocationID,
		PosID:         merchant.PosID,
		ReceiptNumber: receiptNumber,
		AttemptID:     uuid.New(),
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the field invariants.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// ValidateMerchant checks that all merchant identifiers are present.
func ValidateMerchant(m Merchant) error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: merchant: %v", ErrInvalidRequest, err)
	}
	return nil
}
