package api

import (
	"encoding/json"
	"net/http"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/store"
)

func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccountByID(accountIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if account == nil {
		h.writeError(w, r, apperr.NotFound("account not found"))
		return
	}
	h.writeJSON(w, http.StatusOK, account.Settings)
}

func (h *APIHandler) PatchSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var patch store.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}

	settings, err := h.accounts.UpdateSettings(accountIDFrom(r), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

func (h *APIHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteAccount(accountIDFrom(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
