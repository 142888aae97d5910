package http

import (
	"net/http"

	"treasury/internal/core"
	"treasury/internal/storage"
)

type expenseRequest struct {
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	ExpenseDate   string `json:"expenseDate"`
	VendorName    string `json:"vendorName"`
	ReceiptURL    string `json:"receiptUrl"`
	IsApproved    bool   `json:"isApproved"`
	CategoryID    int64  `json:"categoryId"`
	SubcategoryID *int64 `json:"subcategoryId"`
	LinkedEventID *int64 `json:"linkedEventId"`
	CreatorID     int64  `json:"creatorId"`
}

func (req expenseRequest) toCore() (core.Expense, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := parseDate(req.ExpenseDate)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Amount:        amount,
		Description:   req.Description,
		ExpenseDate:   date,
		VendorName:    req.VendorName,
		ReceiptURL:    req.ReceiptURL,
		IsApproved:    req.IsApproved,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		LinkedEventID: req.LinkedEventID,
		CreatorID:     req.CreatorID,
	}, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	e, err := req.toCore()
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.ledger.CreateExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	subcategoryID, err := queryID(r, "subcategoryId")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	approved, err := queryBool(r, "approved")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	items, err := s.ledger.ListExpenses(r.Context(), storage.ExpenseFilter{
		Window:        window,
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Approved:      approved,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]expenseDTO, 0, len(items))
	for _, e := range items {
		out = append(out, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	e, err := s.ledger.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	e, err := req.toCore()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	e.ID = id

	if err := s.ledger.UpdateExpense(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type collectionRequest struct {
	Amount         string `json:"amount"`
	Description    string `json:"description"`
	CollectionDate string `json:"collectionDate"`
	Mode           string `json:"mode"`
	Category       string `json:"category"`
	IsVerified     bool   `json:"isVerified"`
	ReceiptURL     string `json:"receiptUrl"`
	LinkedEventID  *int64 `json:"linkedEventId"`
	CreatorID      int64  `json:"creatorId"`
}

func (req collectionRequest) toCore() (core.ManualCollection, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.ManualCollection{}, err
	}
	date, err := parseDate(req.CollectionDate)
	if err != nil {
		return core.ManualCollection{}, err
	}
	return core.ManualCollection{
		Amount:         amount,
		Description:    req.Description,
		CollectionDate: date,
		Mode:           core.CollectionMode(req.Mode),
		Category:       req.Category,
		IsVerified:     req.IsVerified,
		ReceiptURL:     req.ReceiptURL,
		LinkedEventID:  req.LinkedEventID,
		CreatorID:      req.CreatorID,
	}, nil
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := req.toCore()
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.ledger.CreateCollection(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionDTO(created))
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	verified, err := queryBool(r, "verified")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	items, err := s.ledger.ListCollections(r.Context(), storage.CollectionFilter{
		Window:   window,
		Mode:     core.CollectionMode(r.URL.Query().Get("mode")),
		Category: r.URL.Query().Get("category"),
		Verified: verified,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]collectionDTO, 0, len(items))
	for _, c := range items {
		out = append(out, toCollectionDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := s.ledger.GetCollection(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDTO(c))
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req collectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := req.toCore()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c.ID = id

	if err := s.ledger.UpdateCollection(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDTO(c))
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.ledger.DeleteCollection(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	Provider      string `json:"provider"`
	ReferenceType string `json:"referenceType"`
	UserID        int64  `json:"userId"`
}

func (s *Server) handleIngestPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.ledger.IngestPayment(r.Context(), core.PaymentTransaction{
		Amount:        amount,
		Status:        core.PaymentStatus(req.Status),
		Provider:      req.Provider,
		ReferenceType: req.ReferenceType,
		UserID:        req.UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(created))
}
