package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/service"
)

// bookingHandler exposes the booking core over JSON. Authentication happens
// upstream; callers pass the acting user id explicitly.
type bookingHandler struct {
	bookings service.BookingService
	cancels  service.CancellationService
	deposits service.DepositService
	wallets  service.WalletService
}

// RegisterBookingRoutes mounts the booking API on the given router
func RegisterBookingRoutes(
	router *mux.Router,
	bookings service.BookingService,
	cancels service.CancellationService,
	deposits service.DepositService,
	wallets service.WalletService,
) {
	h := &bookingHandler{bookings: bookings, cancels: cancels, deposits: deposits, wallets: wallets}

	router.HandleFunc("/bookings", h.create).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}", h.get).Methods(http.MethodGet)
	router.HandleFunc("/bookings/{id}/accept", h.accept).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/reject", h.reject).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/cancel", h.cancel).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/validate", h.validate).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/return", h.confirmReturn).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/pickup", h.confirmPickup).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/deposit/setup", h.depositSetup).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/deposit/confirm", h.depositConfirm).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/deposit/refund", h.depositRefund).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}/bookings", h.list).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/wallet", h.wallet).Methods(http.MethodGet)
}

type createBookingBody struct {
	RenterID      string `json:"renter_id"`
	ToolID        string `json:"tool_id"`
	StartDate     string `json:"start_date"` // RFC 3339
	EndDate       string `json:"end_date"`
	PickupHour    *int   `json:"pickup_hour,omitempty"`
	PaymentMethod string `json:"payment_method"`
}

func (h *bookingHandler) create(w http.ResponseWriter, r *http.Request) {
	var body createBookingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start, err := time.Parse(time.RFC3339, body.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date must be RFC 3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, body.EndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must be RFC 3339"})
		return
	}

	booking, err := h.bookings.Create(r.Context(), service.CreateBookingRequest{
		RenterID:      body.RenterID,
		ToolID:        body.ToolID,
		StartDate:     start,
		EndDate:       end,
		PickupHour:    body.PickupHour,
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *bookingHandler) get(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *bookingHandler) accept(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Accept(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type reasonBody struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"` // renter, owner or admin
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (h *bookingHandler) reject(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	booking, err := h.bookings.Reject(r.Context(), mux.Vars(r)["id"], body.Reason, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *bookingHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id := mux.Vars(r)["id"]
	var booking *domain.Booking
	var err error
	switch body.Role {
	case "renter":
		booking, err = h.cancels.CancelByRenter(r.Context(), id, body.UserID, body.Reason, body.Message)
	case "owner":
		booking, err = h.cancels.CancelByOwner(r.Context(), id, body.UserID, body.Reason, body.Message)
	case "admin":
		booking, err = h.cancels.CancelByAdmin(r.Context(), id, body.Reason, body.Message)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be renter, owner or admin"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *bookingHandler) validate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	booking, err := h.bookings.ValidateCode(r.Context(), mux.Vars(r)["id"], body.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *bookingHandler) confirmReturn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RenterID string `json:"renter_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	booking, err := h.bookings.ConfirmReturn(r.Context(), mux.Vars(r)["id"], body.RenterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *bookingHandler) confirmPickup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OwnerID string `json:"owner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	booking, err := h.bookings.ConfirmPickup(r.Context(), mux.Vars(r)["id"], body.OwnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *bookingHandler) depositSetup(w http.ResponseWriter, r *http.Request) {
	intent, err := h.deposits.StartSetup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

func (h *bookingHandler) depositConfirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SetupIntentID string `json:"setup_intent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.deposits.ConfirmSetup(r.Context(), mux.Vars(r)["id"], body.SetupIntentID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *bookingHandler) depositRefund(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AdminID string `json:"admin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	refundID, err := h.deposits.RefundDeposit(r.Context(), mux.Vars(r)["id"], body.AdminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"gateway_refund_id": refundID})
}

func (h *bookingHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	status := r.URL.Query().Get("status")
	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 20)

	var (
		bookings []domain.Booking
		total    int32
		err      error
	)
	switch r.URL.Query().Get("role") {
	case "owner":
		bookings, total, err = h.bookings.ListByOwner(r.Context(), userID, status, page, pageSize)
	default:
		bookings, total, err = h.bookings.ListByRenter(r.Context(), userID, status, page, pageSize)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": bookings,
		"total":    total,
		"page":     page,
	})
}

func (h *bookingHandler) wallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.Balance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func queryInt32(r *http.Request, key string, def int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return def
	}
	return int32(v)
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case domain.IsConflict(err):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
