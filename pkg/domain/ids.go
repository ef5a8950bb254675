// Package domain holds typed identifiers used across module boundaries.
// Wrapping uuid.UUID in distinct types makes it a compile error to pass a
// member ID where an item ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "bazaar/pkg/domain-errors"
)

// MemberID identifies a Directory member.
type MemberID uuid.UUID

// ItemID identifies a Catalog item. May dangle once the item is sold.
type ItemID uuid.UUID

// OrderID identifies an order in the ledger.
type OrderID uuid.UUID

func NewMemberID() MemberID { return MemberID(uuid.New()) }
func NewItemID() ItemID     { return ItemID(uuid.New()) }
func NewOrderID() OrderID   { return OrderID(uuid.New()) }

func (id MemberID) String() string { return uuid.UUID(id).String() }
func (id ItemID) String() string   { return uuid.UUID(id).String() }
func (id OrderID) String() string  { return uuid.UUID(id).String() }

func (id MemberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id OrderID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText let the typed IDs travel through JSON as the
// canonical UUID string form.
func (id MemberID) MarshalText() ([]byte, error) { return marshalText(uuid.UUID(id)) }
func (id ItemID) MarshalText() ([]byte, error)   { return marshalText(uuid.UUID(id)) }
func (id OrderID) MarshalText() ([]byte, error)  { return marshalText(uuid.UUID(id)) }

func (id *MemberID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = MemberID(u)
	return nil
}

func (id *ItemID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ItemID(u)
	return nil
}

func (id *OrderID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = OrderID(u)
	return nil
}

// ParseMemberID validates and returns a MemberID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s, "member id")
	return MemberID(u), err
}

// ParseItemID validates and returns an ItemID.
func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item id")
	return ItemID(u), err
}

// ParseOrderID validates and returns an OrderID.
func ParseOrderID(s string) (OrderID, error) {
	u, err := parseUUID(s, "order id")
	return OrderID(u), err
}

func marshalText(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be nil", label)
	}
	return u, nil
}
