package api

import (
	"encoding/json"
	"net/http"

	"github.com/novamind-ai/novamind-api/internal/apperr"
)

type CreateOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Plan     string `json:"plan"`
	IsYearly bool   `json:"isYearly"`
}

func (h *APIHandler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}

	order, err := h.billing.CreateOrder(r.Context(), req.Amount, req.Currency, req.Receipt, req.Plan, req.IsYearly, accountIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Plan      string `json:"plan"`
	IsYearly  bool   `json:"isYearly"`
}

func (h *APIHandler) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}

	err := h.billing.VerifyPayment(r.Context(), req.OrderID, req.PaymentID, req.Signature, req.Plan, req.IsYearly, accountIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "payment verified",
	})
}
