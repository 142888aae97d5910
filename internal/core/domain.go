package core

import (
	"strings"
	"time"
)

const (
	ModeCash         CollectionMode = "CASH"
	ModeCheque       CollectionMode = "CHEQUE"
	ModeBankTransfer CollectionMode = "BANK_TRANSFER"
	ModeUPIOffline   CollectionMode = "UPI_OFFLINE"
	ModeOther        CollectionMode = "OTHER"
)

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentPending   PaymentStatus = "PENDING"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Yearly balances outside this range are rejected; the range is wide on
// purpose so historical data stays reachable.
const (
	MinBalanceYear = 2000
	MaxBalanceYear = 2050
)

type (
	CollectionMode string

	PaymentStatus string

	// ExpenseCategory is the top level of the two-level expense taxonomy.
	ExpenseCategory struct {
		ID           int64
		Name         string
		Description  string
		IsActive     bool
		DisplayOrder int
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// ExpenseSubcategory belongs to exactly one category. CategoryID is
	// immutable once created; moving a subcategory means recreating it.
	ExpenseSubcategory struct {
		ID           int64
		CategoryID   int64
		Name         string
		Description  string
		IsActive     bool
		DisplayOrder int
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Expense is a categorized outflow ledger entry.
	Expense struct {
		ID            int64
		Amount        Money
		Description   string
		ExpenseDate   time.Time
		VendorName    string
		ReceiptURL    string
		IsApproved    bool
		CategoryID    int64
		SubcategoryID *int64
		LinkedEventID *int64
		CreatorID     int64
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// ManualCollection is an offline inflow ledger entry. Its Category is
	// free text and deliberately independent of the expense taxonomy.
	ManualCollection struct {
		ID             int64
		Amount         Money
		Description    string
		CollectionDate time.Time
		Mode           CollectionMode
		Category       string
		IsVerified     bool
		ReceiptURL     string
		LinkedEventID  *int64
		CreatorID      int64
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// PaymentTransaction comes from the online payment subsystem. The
	// treasury core treats it as an append-only fact and only ever counts
	// rows with PaymentCompleted status.
	PaymentTransaction struct {
		ID            int64
		Amount        Money
		Status        PaymentStatus
		Provider      string
		ReferenceType string
		UserID        int64
		CreatedAt     time.Time
	}

	// YearlyBalance holds the stated opening balance for a year and, once
	// the period is closed, the stated closing balance. ClosingBalance nil
	// means the year has not been reconciled yet.
	YearlyBalance struct {
		ID             int64
		Year           int
		OpeningBalance Money
		ClosingBalance *Money
		Notes          string
		CreatedBy      int64
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// AccountBalance is one point-in-time snapshot of the bank account.
	// Snapshots are append-only; the current balance is the snapshot with
	// the latest BalanceDate.
	AccountBalance struct {
		ID               int64
		CurrentBalance   Money
		BalanceDate      time.Time
		Notes            string
		BankStatementURL string
		UpdatedBy        int64
		CreatedAt        time.Time
	}
)

// Valid reports whether m is one of the fixed collection modes.
func (m CollectionMode) Valid() bool {
	switch m {
	case ModeCash, ModeCheque, ModeBankTransfer, ModeUPIOffline, ModeOther:
		return true
	default:
		return false
	}
}

// CollectionModes lists all accepted modes in declaration order.
func CollectionModes() []CollectionMode {
	return []CollectionMode{ModeCash, ModeCheque, ModeBankTransfer, ModeUPIOffline, ModeOther}
}

// Reconciled reports whether the year has a stated closing balance.
func (b YearlyBalance) Reconciled() bool {
	return b.ClosingBalance != nil
}

func (e Expense) Validate() error {
	v := NewValidationError()
	if err := e.Amount.Validate(); err != nil {
		v.Add("amount", "amount must be positive")
	}
	if strings.TrimSpace(e.Description) == "" {
		v.Add("description", "description is required")
	}
	if e.ExpenseDate.IsZero() {
		v.Add("expenseDate", "expense date is required")
	}
	if e.CategoryID <= 0 {
		v.Add("categoryId", "category is required")
	}
	return v.OrNil()
}

func (c ManualCollection) Validate() error {
	v := NewValidationError()
	if err := c.Amount.Validate(); err != nil {
		v.Add("amount", "amount must be positive")
	}
	if strings.TrimSpace(c.Description) == "" {
		v.Add("description", "description is required")
	}
	if c.CollectionDate.IsZero() {
		v.Add("collectionDate", "collection date is required")
	}
	if !c.Mode.Valid() {
		v.Add("collectionMode", "invalid collection mode")
	}
	return v.OrNil()
}

func (b YearlyBalance) Validate() error {
	if b.Year < MinBalanceYear || b.Year > MaxBalanceYear {
		return ErrYearOutOfRange
	}
	return nil
}
