package models

import (
	"time"

	catalogmodels "bazaar/internal/catalog/models"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

// Status is the order lifecycle state. The only legal transition is
// pending -> completed, and it is irreversible.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted:
		return Status(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown order status %q", s)
	}
}

// Order is a point-in-time record of a sale. Item and party details are
// snapshots taken at checkout: the catalog row is gone by the time the order
// exists, and later member renames never rewrite history.
//
// The plaintext OTP is stored alongside its hash on purpose. The buyer reads
// the code from their order and speaks it to the seller at handoff; the
// seller's completion flow verifies against the hash.
type Order struct {
	ID          domain.OrderID         `json:"id"`
	ItemName    string                 `json:"item_name"`
	Price       float64                `json:"price"`
	Category    catalogmodels.Category `json:"category"`
	SellerID    domain.MemberID        `json:"seller_id"`
	SellerName  string                 `json:"seller_name"`
	BuyerID     domain.MemberID        `json:"buyer_id"`
	BuyerName   string                 `json:"buyer_name"`
	Status      Status                 `json:"status"`
	OTP         string                 `json:"otp"`
	OTPHash     string                 `json:"-"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// NewOrder builds a pending order from a claimed catalog item.
func NewOrder(id domain.OrderID, item *catalogmodels.Item, buyerID domain.MemberID, buyerName,
	otpPlaintext, otpHash string, now time.Time) (*Order, error) {
	if item == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "order requires a claimed item")
	}
	if item.VendorID == buyerID {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "buyer and seller must differ")
	}
	if otpHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "order requires an otp hash")
	}
	return &Order{
		ID:         id,
		ItemName:   item.Name,
		Price:      item.Price,
		Category:   item.Category,
		SellerID:   item.VendorID,
		SellerName: item.VendorName,
		BuyerID:    buyerID,
		BuyerName:  buyerName,
		Status:     StatusPending,
		OTP:        otpPlaintext,
		OTPHash:    otpHash,
		CreatedAt:  now,
	}, nil
}

// CanComplete reports whether the order may transition to completed.
func (o *Order) CanComplete() error {
	if o.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeConflict, "order already completed")
	}
	return nil
}

// ApplyCompletion performs the pending -> completed transition. Callers must
// have checked CanComplete under the same lock.
func (o *Order) ApplyCompletion(now time.Time) {
	o.Status = StatusCompleted
	o.CompletedAt = &now
}
