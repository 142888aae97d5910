package http

import (
	"context"
	"net/http"
	"strconv"

	"treasury/internal/cache"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.categories.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(created))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stats") == "true" {
		key := cache.Key(cache.PrefixCategories, "stats")
		out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) ([]categoryStatsDTO, error) {
			stats, err := s.categories.ListCategoryStats(ctx)
			if err != nil {
				return nil, err
			}
			dtos := make([]categoryStatsDTO, 0, len(stats))
			for _, st := range stats {
				dtos = append(dtos, toCategoryStatsDTO(st))
			}
			return dtos, nil
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	key := cache.Key(cache.PrefixCategories, "list")
	out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) ([]categoryDTO, error) {
		cats, err := s.categories.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		dtos := make([]categoryDTO, 0, len(cats))
		for _, c := range cats {
			dtos = append(dtos, toCategoryDTO(c))
		}
		return dtos, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := s.categories.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	current, err := s.categories.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current.Name = req.Name
	current.Description = req.Description
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}

	if err := s.categories.UpdateCategory(r.Context(), current); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(current))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.categories.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "ids must not be empty")
		return
	}
	if err := s.categories.ReorderCategories(r.Context(), req.IDs); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateSubcategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	created, err := s.categories.CreateSubcategory(r.Context(), categoryID, req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubcategoryDTO(created))
}

func (s *Server) handleListSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if r.URL.Query().Get("stats") == "true" {
		key := cache.Key(cache.PrefixCategories, "substats", strconv.FormatInt(categoryID, 10))
		out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) ([]subcategoryStatsDTO, error) {
			stats, err := s.categories.ListSubcategoryStats(ctx, categoryID)
			if err != nil {
				return nil, err
			}
			dtos := make([]subcategoryStatsDTO, 0, len(stats))
			for _, st := range stats {
				dtos = append(dtos, toSubcategoryStatsDTO(st))
			}
			return dtos, nil
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	key := cache.Key(cache.PrefixCategories, "subs", strconv.FormatInt(categoryID, 10))
	out, err := cache.GetOrCompute(r.Context(), s.views, key, s.viewTTL, func(ctx context.Context) ([]subcategoryDTO, error) {
		subs, err := s.categories.ListSubcategories(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		dtos := make([]subcategoryDTO, 0, len(subs))
		for _, sub := range subs {
			dtos = append(dtos, toSubcategoryDTO(sub))
		}
		return dtos, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	sub, err := s.categories.GetSubcategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubcategoryDTO(sub))
}

func (s *Server) handleUpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	current, err := s.categories.GetSubcategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current.Name = req.Name
	current.Description = req.Description
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}

	if err := s.categories.UpdateSubcategory(r.Context(), current); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubcategoryDTO(current))
}

func (s *Server) handleDeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.categories.DeleteSubcategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "ids must not be empty")
		return
	}
	if err := s.categories.ReorderSubcategories(r.Context(), categoryID, req.IDs); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

