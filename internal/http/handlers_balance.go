package http

import (
	"context"
	"net/http"
	"strconv"

	"treasury/internal/cache"
	"treasury/internal/core"
)

type yearlyBalanceRequest struct {
	Year           int    `json:"year"`
	OpeningBalance string `json:"openingBalance"`
	Notes          string `json:"notes"`
	CreatedBy      int64  `json:"createdBy"`
}

func (s *Server) handleCreateYearlyBalance(w http.ResponseWriter, r *http.Request) {
	var req yearlyBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	opening, err := parseBalanceAmount(req.OpeningBalance)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.balances.CreateYearlyBalance(r.Context(), core.YearlyBalance{
		Year:           req.Year,
		OpeningBalance: opening,
		Notes:          req.Notes,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toYearlyBalanceDTO(created))
}

func (s *Server) handleListYearlyBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.balances.ListYearlyBalances(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]yearlyBalanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, toYearlyBalanceDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetYearlyBalance(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := s.balances.GetYearlyBalance(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toYearlyBalanceDTO(b))
}

type updateYearlyBalanceRequest struct {
	OpeningBalance string `json:"openingBalance"`
	Notes          string `json:"notes"`
}

func (s *Server) handleUpdateYearlyBalance(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req updateYearlyBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	opening, err := parseBalanceAmount(req.OpeningBalance)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	b, err := s.balances.GetYearlyBalance(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b.OpeningBalance = opening
	b.Notes = req.Notes
	if err := s.balances.UpdateYearlyBalance(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toYearlyBalanceDTO(b))
}

type closingBalanceRequest struct {
	ClosingBalance string `json:"closingBalance"`
}

func (s *Server) handleSetClosingBalance(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req closingBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	closing, err := parseBalanceAmount(req.ClosingBalance)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	updated, err := s.balances.SetClosingBalance(r.Context(), year, closing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toYearlyBalanceDTO(updated))
}

func (s *Server) handleDeleteYearlyBalance(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.balances.DeleteYearlyBalance(r.Context(), year); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleYearlySummary(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	key := cache.Key(cache.PrefixSummary, strconv.Itoa(year))
	out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) (yearlySummaryDTO, error) {
		summary, err := s.balances.YearlySummary(ctx, year)
		if err != nil {
			return yearlySummaryDTO{}, err
		}
		return toYearlySummaryDTO(summary), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCurrentBalance(w http.ResponseWriter, r *http.Request) {
	// asOf rewinds to the latest snapshot on or before the given date.
	if asOf := r.URL.Query().Get("asOf"); asOf != "" {
		t, err := parseDate(asOf)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		b, err := s.balances.SnapshotAsOf(r.Context(), t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toCurrentBalanceDTO(b))
		return
	}

	key := cache.Key(cache.PrefixBalance, "current")
	out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) (currentBalanceDTO, error) {
		b, err := s.balances.CurrentBalance(ctx)
		if err != nil {
			return currentBalanceDTO{}, err
		}
		return toCurrentBalanceDTO(b), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	snapshots, err := s.balances.ListSnapshots(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]snapshotDTO, 0, len(snapshots))
	for _, b := range snapshots {
		out = append(out, toSnapshotDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

type snapshotRequest struct {
	CurrentBalance   string `json:"currentBalance"`
	BalanceDate      string `json:"balanceDate"`
	Notes            string `json:"notes"`
	BankStatementURL string `json:"bankStatementUrl"`
	UpdatedBy        int64  `json:"updatedBy"`
}

func (req snapshotRequest) toCore() (core.AccountBalance, error) {
	balance, err := parseBalanceAmount(req.CurrentBalance)
	if err != nil {
		return core.AccountBalance{}, err
	}
	date, err := parseDate(req.BalanceDate)
	if err != nil {
		return core.AccountBalance{}, err
	}
	return core.AccountBalance{
		CurrentBalance:   balance,
		BalanceDate:      date,
		Notes:            req.Notes,
		BankStatementURL: req.BankStatementURL,
		UpdatedBy:        req.UpdatedBy,
	}, nil
}

func (s *Server) handleRecordSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := req.toCore()
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.balances.RecordSnapshot(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSnapshotDTO(created))
}

func (s *Server) handleCorrectSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req snapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := req.toCore()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	b.ID = id

	if err := s.balances.CorrectSnapshot(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(b))
}
