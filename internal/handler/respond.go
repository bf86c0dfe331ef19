package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/logger"
	"github.com/bencevas/orderboard/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store and domain errors to HTTP status codes.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, store.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid status")
	case errors.Is(err, store.ErrInvalidQuantity), errors.Is(err, domain.ErrNegativeQuantity):
		writeError(w, http.StatusBadRequest, "quantity must be >= 0")
	case errors.Is(err, store.ErrEmptyPatch):
		writeError(w, http.StatusBadRequest, "empty update")
	case errors.Is(err, store.ErrItemDecided), errors.Is(err, domain.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, "item already decided")
	default:
		logger.L().Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
