package rest

import (
	"encoding/json"
	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	usecases_port "listing-service/internal/core/port/usecases_port"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type PropertyQueryHandlers struct {
	searchUC   usecases_port.SearchPropertiesUseCase
	listUC     usecases_port.ListPropertiesUseCase
	getUC      usecases_port.GetPropertyUseCase
	featuredUC usecases_port.GetFeaturedUseCase
	similarUC  usecases_port.GetSimilarUseCase
}

func NewPropertyQueryHandlers(searchUC usecases_port.SearchPropertiesUseCase,
	listUC usecases_port.ListPropertiesUseCase,
	getUC usecases_port.GetPropertyUseCase,
	featuredUC usecases_port.GetFeaturedUseCase,
	similarUC usecases_port.GetSimilarUseCase) *PropertyQueryHandlers {
	return &PropertyQueryHandlers{
		searchUC:   searchUC,
		listUC:     listUC,
		getUC:      getUC,
		featuredUC: featuredUC,
		similarUC:  similarUC,
	}
}

var intSearchParams = []string{"bedrooms", "per_page", "page"}

// parseSearchFilters собирает фильтры из query string. Значения сначала проходят
// ту же JSON Schema, что и остальные запросы.
func parseSearchFilters(r *http.Request) (domain.SearchFilters, error) {
	q := r.URL.Query()
	raw := make(map[string]interface{})

	for _, key := range []string{"city", "type", "min_price", "max_price"} {
		if v := q.Get(key); v != "" {
			raw[key] = v
		}
	}
	ints := make(map[string]int)
	for _, key := range intSearchParams {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.SearchFilters{}, domain.NewValidationError(key, "must be an integer")
		}
		ints[key] = n
		raw[key] = json.Number(v)
	}

	if err := contracts.ValidateValue(contracts.SearchPropertiesRequest, raw); err != nil {
		return domain.SearchFilters{}, err
	}

	filters := domain.SearchFilters{
		City:    q.Get("city"),
		Type:    domain.PropertyType(q.Get("type")),
		PerPage: ints["per_page"],
		Page:    ints["page"],
	}
	if n, ok := ints["bedrooms"]; ok {
		filters.Bedrooms = &n
	}
	if v := q.Get("min_price"); v != "" {
		m, err := domain.ParseMoney(v)
		if err != nil {
			return domain.SearchFilters{}, domain.NewValidationError("min_price", err.Error())
		}
		filters.MinPrice = &m
	}
	if v := q.Get("max_price"); v != "" {
		m, err := domain.ParseMoney(v)
		if err != nil {
			return domain.SearchFilters{}, domain.NewValidationError("max_price", err.Error())
		}
		filters.MaxPrice = &m
	}
	return filters, nil
}

func (h *PropertyQueryHandlers) Search(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	filters, err := parseSearchFilters(r)
	if err != nil {
		writeDomainError(w, logger, err)
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"handler": "Search"})
	handlerLogger.Info("Processing request", nil)

	page, err := h.searchUC.Execute(r.Context(), filters)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	handlerLogger.Info("Search finished", port.Fields{"total": page.Total, "count": len(page.Items)})
	RespondWithJSON(w, http.StatusOK, toPageResponse(page))
}

func (h *PropertyQueryHandlers) ListAll(w http.ResponseWriter, r *http.Request) {
	handlerLogger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ListAll"})

	// с per_page отдаем страницу вместо полного списка
	if r.URL.Query().Get("per_page") != "" {
		filters, err := parseSearchFilters(r)
		if err != nil {
			writeDomainError(w, handlerLogger, err)
			return
		}
		page, err := h.listUC.Paginate(r.Context(), filters.PerPage, filters.Page)
		if err != nil {
			writeDomainError(w, handlerLogger, err)
			return
		}
		RespondWithJSON(w, http.StatusOK, toPageResponse(page))
		return
	}

	items, err := h.listUC.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListResponse(items))
}

func (h *PropertyQueryHandlers) Featured(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	limit, err := getLimitOrDefault(r, domain.DefaultFeaturedSize)
	if err != nil {
		logger.Warn("Invalid 'limit' parameter", port.Fields{"error": err.Error()})
		writeDomainError(w, logger, err)
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"handler": "Featured", "limit": limit})
	items, err := h.featuredUC.Execute(r.Context(), limit)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListResponse(items))
}

func (h *PropertyQueryHandlers) Details(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	handlerLogger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Details", "slug": slug})

	property, err := h.getUC.BySlug(r.Context(), slug)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property))
}

func (h *PropertyQueryHandlers) Similar(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())
	slug := chi.URLParam(r, "slug")

	limit, err := getLimitOrDefault(r, domain.DefaultSimilarSize)
	if err != nil {
		logger.Warn("Invalid 'limit' parameter", port.Fields{"error": err.Error()})
		writeDomainError(w, logger, err)
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"handler": "Similar", "slug": slug, "limit": limit})

	property, err := h.getUC.BySlug(r.Context(), slug)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}
	items, err := h.similarUC.Execute(r.Context(), property, limit)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListResponse(items))
}

func (h *PropertyQueryHandlers) ByOwner(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	ownerID, err := parseIDParam(chi.URLParam(r, "ownerID"))
	if err != nil {
		logger.Warn("Invalid 'ownerID' parameter", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "invalid owner id")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"handler": "ByOwner", "owner_id": ownerID})
	items, err := h.getUC.ByOwner(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListResponse(items))
}

// AdminByID - карточка для администратора: удаленные и неодобренные тоже видны
func (h *PropertyQueryHandlers) AdminByID(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		logger.Warn("Invalid 'id' parameter", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "invalid property id")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"handler": "AdminByID", "property_id": id})
	property, err := h.getUC.ByIDAdmin(r.Context(), id)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property))
}
