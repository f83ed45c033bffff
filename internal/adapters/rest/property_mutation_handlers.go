package rest

import (
	"encoding/json"
	"errors"
	"io"
	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	usecases_port "listing-service/internal/core/port/usecases_port"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type PropertyMutationHandlers struct {
	createUC usecases_port.CreatePropertyUseCase
	updateUC usecases_port.UpdatePropertyUseCase
	deleteUC usecases_port.DeletePropertyUseCase
}

func NewPropertyMutationHandlers(createUC usecases_port.CreatePropertyUseCase,
	updateUC usecases_port.UpdatePropertyUseCase,
	deleteUC usecases_port.DeletePropertyUseCase) *PropertyMutationHandlers {
	return &PropertyMutationHandlers{
		createUC: createUC,
		updateUC: updateUC,
		deleteUC: deleteUC,
	}
}

// readValidatedBody читает тело с ограничением размера и проверяет его схемой
func readValidatedBody(w http.ResponseWriter, r *http.Request, schema string) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.NewValidationError("body", "request body is too large")
		}
		return nil, domain.NewValidationError("body", "failed to read request body")
	}
	if err := contracts.ValidateRequest(schema, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (h *PropertyMutationHandlers) Create(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())
	handlerLogger := logger.WithFields(port.Fields{"handler": "Create"})

	body, err := readValidatedBody(w, r, contracts.CreatePropertyRequest)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	var req CreatePropertyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeDomainError(w, handlerLogger, domain.NewValidationError("body", err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	handlerLogger.Info("Processing request", port.Fields{"owner_id": input.OwnerID, "images": len(input.Images)})

	property, err := h.createUC.Execute(r.Context(), input)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	handlerLogger.Info("Property created", port.Fields{"property_id": property.ID, "slug": property.Slug})
	RespondWithJSON(w, http.StatusCreated, toPropertyResponse(property))
}

func (h *PropertyMutationHandlers) Update(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		logger.Warn("Invalid 'id' parameter", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "invalid property id")
		return
	}
	handlerLogger := logger.WithFields(port.Fields{"handler": "Update", "property_id": id})

	body, err := readValidatedBody(w, r, contracts.UpdatePropertyRequest)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	var patch updatePatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeDomainError(w, handlerLogger, domain.NewValidationError("body", err.Error()))
		return
	}
	input, err := patch.toInput()
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	property, err := h.updateUC.Execute(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	handlerLogger.Info("Property updated", port.Fields{"slug": property.Slug})
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property))
}

func (h *PropertyMutationHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		logger.Warn("Invalid 'id' parameter", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "invalid property id")
		return
	}
	handlerLogger := logger.WithFields(port.Fields{"handler": "Delete", "property_id": id})

	if err := h.deleteUC.Execute(r.Context(), id); err != nil {
		writeDomainError(w, handlerLogger, err)
		return
	}

	handlerLogger.Info("Property deleted", nil)
	w.WriteHeader(http.StatusNoContent)
}
