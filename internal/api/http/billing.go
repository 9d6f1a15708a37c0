package http

import (
	"encoding/json"
	"net/http"

	"github.com/examloop/examloop/internal/billing"
	"github.com/examloop/examloop/internal/rbac"
)

// GET /billing/offerings
func OfferingsHandler(p billing.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offs, err := p.GetOfferings(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"offerings": offs})
	}
}

// GET /billing/status
func SubscriptionStatusHandler(p billing.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := p.GetStatus(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// POST /billing/purchase {offering_id}
func PurchaseHandler(p billing.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OfferingID string `json:"offering_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OfferingID == "" {
			http.Error(w, "offering_id required", http.StatusBadRequest)
			return
		}
		st, err := p.Purchase(r.Context(), rbac.SubjectFromContext(r.Context()), req.OfferingID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// POST /billing/restore
func RestoreHandler(p billing.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := p.Restore(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
