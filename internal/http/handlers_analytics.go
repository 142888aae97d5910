package http

import (
	"context"
	"net/http"
	"strconv"

	"treasury/internal/analytics"
	"treasury/internal/cache"
	"treasury/internal/core"
)

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	source := core.Source(r.URL.Query().Get("source"))
	dim := core.Dimension(r.URL.Query().Get("dimension"))
	window, err := queryWindow(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	key := cache.Key(cache.PrefixAggregate, string(source),
		window.From.Format(dateLayout), window.To.Format(dateLayout), string(dim))
	out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) (aggregateDTO, error) {
		result, err := s.analytics.Aggregate(ctx, source, window, dim)
		if err != nil {
			return aggregateDTO{}, err
		}
		return toAggregateDTO(result), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type sourceTotalsDTO struct {
	From    string                    `json:"from"`
	To      string                    `json:"to"`
	Sources map[string]sourceTotalDTO `json:"sources"`
}

func (s *Server) handleSourceTotals(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	totals, err := s.analytics.SourceTotals(r.Context(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := sourceTotalsDTO{
		From:    window.From.Format(dateLayout),
		To:      window.To.Format(dateLayout),
		Sources: make(map[string]sourceTotalDTO, len(totals)),
	}
	for source, total := range totals {
		out.Sources[string(source)] = toSourceTotalDTO(total)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	key := cache.Key(cache.PrefixTrend, strconv.Itoa(year))
	out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) (trendDTO, error) {
		months, err := s.analytics.MonthlyTrend(ctx, year)
		if err != nil {
			return trendDTO{}, err
		}
		return toTrendDTO(year, months, analytics.QuarterlyRollup(months), analytics.Stats(months)), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSurplusDeficit(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	result, err := s.analytics.SurplusDeficit(r.Context(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSurplusDeficitDTO(result))
}

func (s *Server) handleYearlyComparison(w http.ResponseWriter, r *http.Request) {
	fromYear, err := queryInt(r, "fromYear", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	toYear, err := queryInt(r, "toYear", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if fromYear == 0 || toYear == 0 {
		badRequest(w, "fromYear and toYear are required")
		return
	}

	entries, err := s.analytics.YearlyComparison(r.Context(), fromYear, toYear)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toYearComparisonDTOs(entries))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	key := cache.Key(cache.PrefixDashboard,
		window.From.Format(dateLayout), window.To.Format(dateLayout))
	out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) (dashboardDTO, error) {
		summary, err := s.analytics.Dashboard(ctx, window)
		if err != nil {
			return dashboardDTO{}, err
		}
		return toDashboardDTO(summary), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
