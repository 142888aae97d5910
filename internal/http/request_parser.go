package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"treasury/internal/core"
)

const dateLayout = "2006-01-02"

func pathID(r *http.Request, name string) (int64, error) {
	v := r.PathValue(name)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return id, nil
}

func pathYear(r *http.Request) (int, error) {
	v := r.PathValue("year")
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", v)
	}
	return year, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// queryWindow resolves the date window of a read request. Accepts either
// explicit from/to dates, a year (optionally narrowed by month), or nothing,
// which defaults to the current calendar year.
func queryWindow(r *http.Request) (core.Window, error) {
	q := r.URL.Query()

	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr != "" || toStr != "" {
		if fromStr == "" || toStr == "" {
			return core.Window{}, fmt.Errorf("from and to must be provided together")
		}
		from, err := parseDate(fromStr)
		if err != nil {
			return core.Window{}, err
		}
		to, err := parseDate(toStr)
		if err != nil {
			return core.Window{}, err
		}
		// Extend to the end of the day so the range stays inclusive.
		w := core.Window{From: from, To: to.AddDate(0, 0, 1).Add(-time.Nanosecond)}
		if err := w.Validate(); err != nil {
			return core.Window{}, err
		}
		return w, nil
	}

	if yearStr := q.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return core.Window{}, fmt.Errorf("invalid year %q", yearStr)
		}
		if monthStr := q.Get("month"); monthStr != "" {
			month, err := strconv.Atoi(monthStr)
			if err != nil || month < 1 || month > 12 {
				return core.Window{}, fmt.Errorf("invalid month %q", monthStr)
			}
			return core.MonthWindow(year, time.Month(month)), nil
		}
		return core.YearWindow(year), nil
	}

	return core.YearWindow(time.Now().Year()), nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return id, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &b, nil
}

// parseAmount converts a positive decimal amount string to Money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseBalanceAmount allows zero and negative values, which stated balances
// legitimately take.
func parseBalanceAmount(s string) (core.Money, error) {
	cents, err := core.ParseSignedDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
