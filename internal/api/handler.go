package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/auth"
	"github.com/novamind-ai/novamind-api/internal/core"
	"github.com/novamind-ai/novamind-api/internal/store"
)

// AccountAccess is the account surface the handlers need beyond the core
// services: profile reads, settings, and deletion.
type AccountAccess interface {
	GetAccountByID(id int64) (*store.Account, error)
	UpdateSettings(accountID int64, patch store.SettingsPatch) (*store.Settings, error)
	DeleteAccount(accountID int64) error
}

type APIHandler struct {
	otp      *core.OTPService
	chat     *core.ChatService
	billing  *core.BillingService
	accounts AccountAccess
	tokens   *auth.TokenManager
	logger   *zap.SugaredLogger
}

func NewAPIHandler(otp *core.OTPService, chat *core.ChatService, billing *core.BillingService, accounts AccountAccess, tokens *auth.TokenManager, logger *zap.SugaredLogger) *APIHandler {
	return &APIHandler{
		otp:      otp,
		chat:     chat,
		billing:  billing,
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorw("failed to write response", "error", err)
	}
}

// writeError logs the full error server-side and returns only the user-safe
// message with the taxonomy-mapped status.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		h.logger.Errorw("request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debugw("request rejected", "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": apperr.UserMessage(err)})
}
