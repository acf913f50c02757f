package risks

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps engine errors onto HTTP responses. Resolution
// failures become 404/403; axis and field mismatches are catalog defects and
// are surfaced loudly as 500s rather than masked as not-found.
func writeDomainError(w http.ResponseWriter, err error) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		http.Error(w, nf.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrForbidden) {
		http.Error(w, ErrForbidden.Error(), http.StatusForbidden)
		return
	}
	var svc *ServiceError
	if errors.As(err, &svc) {
		log.Printf("[risks] upstream failure: %v", err)
		http.Error(w, "Upstream service error", http.StatusBadGateway)
		return
	}
	var amb *AmbiguousAxisError
	var mf *MissingFieldError
	if errors.As(err, &amb) || errors.As(err, &mf) {
		log.Printf("[risks] catalog defect: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[risks] internal error: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
