package http

import (
	"time"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// Amounts travel as integer cents plus a two-decimal display string, so
// clients never have to re-derive formatting and arithmetic stays exact.
type moneyDTO struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func money(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Display: m.String()}
}

func moneyPtr(m *core.Money) *moneyDTO {
	if m == nil {
		return nil
	}
	d := money(*m)
	return &d
}

type categoryDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"isActive"`
	DisplayOrder int    `json:"displayOrder"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

func toCategoryDTO(c core.ExpenseCategory) categoryDTO {
	return categoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		IsActive:     c.IsActive,
		DisplayOrder: c.DisplayOrder,
		CreatedAt:    fmtTime(c.CreatedAt),
		UpdatedAt:    fmtTime(c.UpdatedAt),
	}
}

type categoryStatsDTO struct {
	Category         categoryDTO `json:"category"`
	SubcategoryCount int64       `json:"subcategoryCount"`
	ExpenseCount     int64       `json:"expenseCount"`
	ExpenseTotal     moneyDTO    `json:"expenseTotal"`
}

func toCategoryStatsDTO(s storage.CategoryStats) categoryStatsDTO {
	return categoryStatsDTO{
		Category:         toCategoryDTO(s.Category),
		SubcategoryCount: s.SubcategoryCount,
		ExpenseCount:     s.ExpenseCount,
		ExpenseTotal:     money(s.ExpenseTotal),
	}
}

type subcategoryDTO struct {
	ID           int64  `json:"id"`
	CategoryID   int64  `json:"categoryId"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"isActive"`
	DisplayOrder int    `json:"displayOrder"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

func toSubcategoryDTO(s core.ExpenseSubcategory) subcategoryDTO {
	return subcategoryDTO{
		ID:           s.ID,
		CategoryID:   s.CategoryID,
		Name:         s.Name,
		Description:  s.Description,
		IsActive:     s.IsActive,
		DisplayOrder: s.DisplayOrder,
		CreatedAt:    fmtTime(s.CreatedAt),
		UpdatedAt:    fmtTime(s.UpdatedAt),
	}
}

type subcategoryStatsDTO struct {
	Subcategory  subcategoryDTO `json:"subcategory"`
	ExpenseCount int64          `json:"expenseCount"`
	ExpenseTotal moneyDTO       `json:"expenseTotal"`
}

func toSubcategoryStatsDTO(s storage.SubcategoryStats) subcategoryStatsDTO {
	return subcategoryStatsDTO{
		Subcategory:  toSubcategoryDTO(s.Subcategory),
		ExpenseCount: s.ExpenseCount,
		ExpenseTotal: money(s.ExpenseTotal),
	}
}

type expenseDTO struct {
	ID            int64    `json:"id"`
	Amount        moneyDTO `json:"amount"`
	Description   string   `json:"description"`
	ExpenseDate   string   `json:"expenseDate"`
	VendorName    string   `json:"vendorName,omitempty"`
	ReceiptURL    string   `json:"receiptUrl,omitempty"`
	IsApproved    bool     `json:"isApproved"`
	CategoryID    int64    `json:"categoryId"`
	SubcategoryID *int64   `json:"subcategoryId,omitempty"`
	LinkedEventID *int64   `json:"linkedEventId,omitempty"`
	CreatorID     int64    `json:"creatorId"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:            e.ID,
		Amount:        money(e.Amount),
		Description:   e.Description,
		ExpenseDate:   e.ExpenseDate.Format(dateLayout),
		VendorName:    e.VendorName,
		ReceiptURL:    e.ReceiptURL,
		IsApproved:    e.IsApproved,
		CategoryID:    e.CategoryID,
		SubcategoryID: e.SubcategoryID,
		LinkedEventID: e.LinkedEventID,
		CreatorID:     e.CreatorID,
		CreatedAt:     fmtTime(e.CreatedAt),
		UpdatedAt:     fmtTime(e.UpdatedAt),
	}
}

type collectionDTO struct {
	ID             int64    `json:"id"`
	Amount         moneyDTO `json:"amount"`
	Description    string   `json:"description"`
	CollectionDate string   `json:"collectionDate"`
	Mode           string   `json:"mode"`
	Category       string   `json:"category,omitempty"`
	IsVerified     bool     `json:"isVerified"`
	ReceiptURL     string   `json:"receiptUrl,omitempty"`
	LinkedEventID  *int64   `json:"linkedEventId,omitempty"`
	CreatorID      int64    `json:"creatorId"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

func toCollectionDTO(c core.ManualCollection) collectionDTO {
	return collectionDTO{
		ID:             c.ID,
		Amount:         money(c.Amount),
		Description:    c.Description,
		CollectionDate: c.CollectionDate.Format(dateLayout),
		Mode:           string(c.Mode),
		Category:       c.Category,
		IsVerified:     c.IsVerified,
		ReceiptURL:     c.ReceiptURL,
		LinkedEventID:  c.LinkedEventID,
		CreatorID:      c.CreatorID,
		CreatedAt:      fmtTime(c.CreatedAt),
		UpdatedAt:      fmtTime(c.UpdatedAt),
	}
}

type paymentDTO struct {
	ID            int64    `json:"id"`
	Amount        moneyDTO `json:"amount"`
	Status        string   `json:"status"`
	Provider      string   `json:"provider"`
	ReferenceType string   `json:"referenceType,omitempty"`
	UserID        int64    `json:"userId"`
	CreatedAt     string   `json:"createdAt,omitempty"`
}

func toPaymentDTO(p core.PaymentTransaction) paymentDTO {
	return paymentDTO{
		ID:            p.ID,
		Amount:        money(p.Amount),
		Status:        string(p.Status),
		Provider:      p.Provider,
		ReferenceType: p.ReferenceType,
		UserID:        p.UserID,
		CreatedAt:     fmtTime(p.CreatedAt),
	}
}

type yearlyBalanceDTO struct {
	ID             int64     `json:"id"`
	Year           int       `json:"year"`
	OpeningBalance moneyDTO  `json:"openingBalance"`
	ClosingBalance *moneyDTO `json:"closingBalance,omitempty"`
	Reconciled     bool      `json:"reconciled"`
	Notes          string    `json:"notes,omitempty"`
	CreatedBy      int64     `json:"createdBy"`
	CreatedAt      string    `json:"createdAt,omitempty"`
	UpdatedAt      string    `json:"updatedAt,omitempty"`
}

func toYearlyBalanceDTO(b core.YearlyBalance) yearlyBalanceDTO {
	return yearlyBalanceDTO{
		ID:             b.ID,
		Year:           b.Year,
		OpeningBalance: money(b.OpeningBalance),
		ClosingBalance: moneyPtr(b.ClosingBalance),
		Reconciled:     b.Reconciled(),
		Notes:          b.Notes,
		CreatedBy:      b.CreatedBy,
		CreatedAt:      fmtTime(b.CreatedAt),
		UpdatedAt:      fmtTime(b.UpdatedAt),
	}
}

type yearlySummaryDTO struct {
	Year               int       `json:"year"`
	OpeningBalance     moneyDTO  `json:"openingBalance"`
	ManualCollections  moneyDTO  `json:"manualCollections"`
	OnlinePayments     moneyDTO  `json:"onlinePayments"`
	TotalCollections   moneyDTO  `json:"totalCollections"`
	TotalExpenses      moneyDTO  `json:"totalExpenses"`
	NetMovement        moneyDTO  `json:"netMovement"`
	TheoreticalClosing moneyDTO  `json:"theoreticalClosing"`
	ClosingBalance     *moneyDTO `json:"closingBalance,omitempty"`
	BalanceDifference  *moneyDTO `json:"balanceDifference,omitempty"`
}

func toYearlySummaryDTO(s core.YearlySummary) yearlySummaryDTO {
	return yearlySummaryDTO{
		Year:               s.Year,
		OpeningBalance:     money(s.OpeningBalance),
		ManualCollections:  money(s.ManualCollections),
		OnlinePayments:     money(s.OnlinePayments),
		TotalCollections:   money(s.TotalCollections),
		TotalExpenses:      money(s.TotalExpenses),
		NetMovement:        money(s.NetMovement),
		TheoreticalClosing: money(s.TheoreticalClosing),
		ClosingBalance:     moneyPtr(s.ClosingBalance),
		BalanceDifference:  moneyPtr(s.BalanceDifference),
	}
}

type snapshotDTO struct {
	ID               int64    `json:"id"`
	CurrentBalance   moneyDTO `json:"currentBalance"`
	BalanceDate      string   `json:"balanceDate"`
	Notes            string   `json:"notes,omitempty"`
	BankStatementURL string   `json:"bankStatementUrl,omitempty"`
	UpdatedBy        int64    `json:"updatedBy"`
	CreatedAt        string   `json:"createdAt,omitempty"`
}

func toSnapshotDTO(b core.AccountBalance) snapshotDTO {
	return snapshotDTO{
		ID:               b.ID,
		CurrentBalance:   money(b.CurrentBalance),
		BalanceDate:      b.BalanceDate.Format(dateLayout),
		Notes:            b.Notes,
		BankStatementURL: b.BankStatementURL,
		UpdatedBy:        b.UpdatedBy,
		CreatedAt:        fmtTime(b.CreatedAt),
	}
}

type currentBalanceDTO struct {
	HasData  bool         `json:"hasData"`
	Snapshot *snapshotDTO `json:"snapshot,omitempty"`
}

func toCurrentBalanceDTO(b core.CurrentBalance) currentBalanceDTO {
	out := currentBalanceDTO{HasData: b.HasData}
	if b.HasData {
		s := toSnapshotDTO(b.Snapshot)
		out.Snapshot = &s
	}
	return out
}

type breakdownEntryDTO struct {
	Key        string   `json:"key"`
	Amount     moneyDTO `json:"amount"`
	Count      int64    `json:"count"`
	Percentage float64  `json:"percentage"`
}

type aggregateDTO struct {
	Source      string              `json:"source"`
	TotalAmount moneyDTO            `json:"totalAmount"`
	Count       int64               `json:"count"`
	Breakdown   []breakdownEntryDTO `json:"breakdown,omitempty"`
}

func toAggregateDTO(a core.AggregateResult) aggregateDTO {
	out := aggregateDTO{
		Source:      string(a.Source),
		TotalAmount: money(a.TotalAmount),
		Count:       a.Count,
	}
	for _, b := range a.Breakdown {
		out.Breakdown = append(out.Breakdown, breakdownEntryDTO{
			Key:        b.Key,
			Amount:     money(b.Amount),
			Count:      b.Count,
			Percentage: b.Percentage,
		})
	}
	return out
}

type sourceTotalDTO struct {
	Total moneyDTO `json:"total"`
	Count int64    `json:"count"`
}

func toSourceTotalDTO(t core.SourceTotal) sourceTotalDTO {
	return sourceTotalDTO{Total: money(t.Total), Count: t.Count}
}

type monthlyTrendEntryDTO struct {
	Month             int            `json:"month"`
	Expenses          sourceTotalDTO `json:"expenses"`
	ManualCollections sourceTotalDTO `json:"manualCollections"`
	OnlinePayments    sourceTotalDTO `json:"onlinePayments"`
	NetMovement       moneyDTO       `json:"netMovement"`
}

type quarterlyTrendEntryDTO struct {
	Quarter     int      `json:"quarter"`
	Expenses    moneyDTO `json:"expenses"`
	Collections moneyDTO `json:"collections"`
	NetMovement moneyDTO `json:"netMovement"`
}

type trendStatsDTO struct {
	GrowthRate  float64 `json:"growthRate"`
	Consistency float64 `json:"consistency"`
	Volatility  float64 `json:"volatility"`
	Direction   string  `json:"direction"`
	PeakMonth   int     `json:"peakMonth"`
	TroughMonth int     `json:"troughMonth"`
}

type trendDTO struct {
	Year     int                      `json:"year"`
	Months   []monthlyTrendEntryDTO   `json:"months"`
	Quarters []quarterlyTrendEntryDTO `json:"quarters"`
	Stats    trendStatsDTO            `json:"stats"`
}

func toTrendDTO(year int, months []core.MonthlyTrendEntry, quarters []core.QuarterlyTrendEntry, stats core.TrendStats) trendDTO {
	out := trendDTO{
		Year: year,
		Stats: trendStatsDTO{
			GrowthRate:  stats.GrowthRate,
			Consistency: stats.Consistency,
			Volatility:  stats.Volatility,
			Direction:   stats.Direction,
			PeakMonth:   stats.PeakMonth,
			TroughMonth: stats.TroughMonth,
		},
	}
	for _, m := range months {
		out.Months = append(out.Months, monthlyTrendEntryDTO{
			Month:             m.Month,
			Expenses:          toSourceTotalDTO(m.Expenses),
			ManualCollections: toSourceTotalDTO(m.ManualCollections),
			OnlinePayments:    toSourceTotalDTO(m.OnlinePayments),
			NetMovement:       money(m.NetMovement),
		})
	}
	for _, q := range quarters {
		out.Quarters = append(out.Quarters, quarterlyTrendEntryDTO{
			Quarter:     q.Quarter,
			Expenses:    money(q.Expenses),
			Collections: money(q.Collections),
			NetMovement: money(q.NetMovement),
		})
	}
	return out
}

type surplusDeficitDTO struct {
	From              string   `json:"from"`
	To                string   `json:"to"`
	ManualCollections moneyDTO `json:"manualCollections"`
	OnlinePayments    moneyDTO `json:"onlinePayments"`
	TotalCollections  moneyDTO `json:"totalCollections"`
	TotalExpenses     moneyDTO `json:"totalExpenses"`
	Net               moneyDTO `json:"net"`
	IsSurplus         bool     `json:"isSurplus"`
}

func toSurplusDeficitDTO(s core.SurplusDeficit) surplusDeficitDTO {
	return surplusDeficitDTO{
		From:              s.Window.From.Format(dateLayout),
		To:                s.Window.To.Format(dateLayout),
		ManualCollections: money(s.ManualCollections),
		OnlinePayments:    money(s.OnlinePayments),
		TotalCollections:  money(s.TotalCollections),
		TotalExpenses:     money(s.TotalExpenses),
		Net:               money(s.Net),
		IsSurplus:         s.IsSurplus,
	}
}

type yearComparisonEntryDTO struct {
	Year        int      `json:"year"`
	Expenses    moneyDTO `json:"expenses"`
	Collections moneyDTO `json:"collections"`
	NetMovement moneyDTO `json:"netMovement"`
}

func toYearComparisonDTOs(entries []core.YearComparisonEntry) []yearComparisonEntryDTO {
	out := make([]yearComparisonEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, yearComparisonEntryDTO{
			Year:        e.Year,
			Expenses:    money(e.Expenses),
			Collections: money(e.Collections),
			NetMovement: money(e.NetMovement),
		})
	}
	return out
}

type dashboardDTO struct {
	From              string            `json:"from"`
	To                string            `json:"to"`
	Expenses          aggregateDTO      `json:"expenses"`
	ManualCollections aggregateDTO      `json:"manualCollections"`
	OnlinePayments    aggregateDTO      `json:"onlinePayments"`
	NetMovement       moneyDTO          `json:"netMovement"`
	CurrentBalance    currentBalanceDTO `json:"currentBalance"`
}

func toDashboardDTO(d core.DashboardSummary) dashboardDTO {
	return dashboardDTO{
		From:              d.Window.From.Format(dateLayout),
		To:                d.Window.To.Format(dateLayout),
		Expenses:          toAggregateDTO(d.Expenses),
		ManualCollections: toAggregateDTO(d.ManualCollections),
		OnlinePayments:    toAggregateDTO(d.OnlinePayments),
		NetMovement:       money(d.NetMovement),
		CurrentBalance:    toCurrentBalanceDTO(d.CurrentBalance),
	}
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
