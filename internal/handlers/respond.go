// Package handlers implements the HTTP surface: auth, teams, invitations,
// messages, and the websocket upgrade.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// storeTimeout bounds every store call made from a handler. A timeout
// surfaces as a store error, never a hang.
const storeTimeout = 5 * time.Second

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"message": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling JSON: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
