package accounting

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is a single side of a posting.
type Line struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Debit builds a debit line.
func Debit(accountID int64, amount decimal.Decimal) Line {
	return Line{AccountID: accountID, Debit: amount}
}

// Credit builds a credit line.
func Credit(accountID int64, amount decimal.Decimal) Line {
	return Line{AccountID: accountID, Credit: amount}
}

func (l Line) zero() bool {
	return l.Debit.IsZero() && l.Credit.IsZero()
}

// Posting is a balanced batch of ledger lines written under one posting id.
// The only way to obtain one is NewPosting, so every value is balanced.
type Posting struct {
	id    uuid.UUID
	ref   Ref
	lines []Line
}

// NewPosting validates the lines, drops zero-amount ones and checks that
// debits equal credits.
func NewPosting(ref Ref, lines ...Line) (Posting, error) {
	if ref.Type == "" || ref.ID <= 0 {
		return Posting{}, fmt.Errorf("accounting: posting reference required, got %s", ref)
	}
	kept := make([]Line, 0, len(lines))
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range lines {
		if line.AccountID <= 0 {
			return Posting{}, fmt.Errorf("%w: line %d missing account", ErrInvalidLine, idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return Posting{}, fmt.Errorf("%w: line %d negative amount", ErrInvalidLine, idx)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return Posting{}, fmt.Errorf("%w: line %d cannot be both debit and credit", ErrInvalidLine, idx)
		}
		if line.zero() {
			continue
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
		kept = append(kept, line)
	}
	if !debit.Equal(credit) {
		return Posting{}, fmt.Errorf("%w: debit %s credit %s (%s)", ErrUnbalanced, debit.StringFixed(2), credit.StringFixed(2), ref)
	}
	return Posting{id: uuid.New(), ref: ref, lines: kept}, nil
}

// ID groups the ledger rows of this posting.
func (p Posting) ID() uuid.UUID { return p.id }

// Ref returns the originating document.
func (p Posting) Ref() Ref { return p.ref }

// Lines returns a copy of the non-zero lines.
func (p Posting) Lines() []Line {
	out := make([]Line, len(p.lines))
	copy(out, p.lines)
	return out
}
