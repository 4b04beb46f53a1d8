package api

import (
	"encoding/json"
	"net/http"

	"github.com/novamind-ai/novamind-api/internal/apperr"
)

type RequestOTPRequest struct {
	Email string `json:"email"`
}

func (h *APIHandler) RequestOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req RequestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}

	isNewUser, err := h.otp.RequestCode(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "verification code sent",
		"isNewUser": isNewUser,
	})
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *APIHandler) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}

	account, err := h.otp.VerifyCode(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.tokens.GenerateToken(account.ID, account.Email)
	if err != nil {
		h.logger.Errorw("failed to generate token", "email", account.Email, "error", err)
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"token":   token,
		"user":    account,
	})
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccountByID(accountIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if account == nil {
		h.writeError(w, r, apperr.NotFound("account not found"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user": account})
}
