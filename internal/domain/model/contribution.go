package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Contribution entity
// ---------------------------------------------------------------------------

// Contribution is money a member put into the pool. It is either reported
// directly, or owned by a GENERIC_CONTRIBUTION allocation line, in which case
// it is created, updated and deleted in lockstep with that line.
type Contribution struct {
	id            uuid.UUID
	memberID      uuid.UUID
	contributedOn time.Time
	amount        decimal.Decimal
	receiptRef    string
	registeredAt  time.Time
}

// NewContribution records a contribution to the pool.
func NewContribution(
	memberID uuid.UUID,
	contributedOn time.Time,
	amount decimal.Decimal,
	receiptRef string,
	now time.Time,
) (*Contribution, error) {
	if memberID == uuid.Nil {
		return nil, errors.New("member ID is required")
	}
	if contributedOn.IsZero() {
		return nil, errors.New("contribution date is required")
	}
	if !amount.IsPositive() {
		return nil, errors.New("contribution amount must be positive")
	}
	return &Contribution{
		id:            uuid.New(),
		memberID:      memberID,
		contributedOn: contributedOn,
		amount:        amount,
		receiptRef:    receiptRef,
		registeredAt:  now,
	}, nil
}

// ReconstructContribution rebuilds a contribution from persistence.
func ReconstructContribution(
	id, memberID uuid.UUID,
	contributedOn time.Time,
	amount decimal.Decimal,
	receiptRef string,
	registeredAt time.Time,
) *Contribution {
	return &Contribution{
		id:            id,
		memberID:      memberID,
		contributedOn: contributedOn,
		amount:        amount,
		receiptRef:    receiptRef,
		registeredAt:  registeredAt,
	}
}

func (c *Contribution) ID() uuid.UUID            { return c.id }
func (c *Contribution) MemberID() uuid.UUID      { return c.memberID }
func (c *Contribution) ContributedOn() time.Time { return c.contributedOn }
func (c *Contribution) Amount() decimal.Decimal  { return c.amount }
func (c *Contribution) ReceiptRef() string       { return c.receiptRef }
func (c *Contribution) RegisteredAt() time.Time  { return c.registeredAt }

// Sync mirrors the owning allocation line onto the contribution record.
func (c *Contribution) Sync(contributedOn time.Time, amount decimal.Decimal, receiptRef string) error {
	if !amount.IsPositive() {
		return errors.New("contribution amount must be positive")
	}
	if !contributedOn.IsZero() {
		c.contributedOn = contributedOn
	}
	c.amount = amount
	if receiptRef != "" {
		c.receiptRef = receiptRef
	}
	return nil
}
