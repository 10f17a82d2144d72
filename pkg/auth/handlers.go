package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/antibyte/retrobasic/pkg/logger"
)

// SessionRequest definiert die Struktur für Session-Anfragen
type SessionRequest struct {
	Password string `json:"password,omitempty"`
}

// SessionResponse definiert die Struktur für Session-Antworten
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId,omitempty"`
	Token     string `json:"token,omitempty"`
	Message   string `json:"message"`
}

// maxRequestBody caps the size of session requests.
const maxRequestBody = 4096

// generateSessionID erzeugt eine neue Session-ID im UUID-Format
func generateSessionID() string {
	return uuid.New().String()
}

// HandleCreateSession issues a new session ID and a token for it. When a
// console password is configured the request must carry it.
func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		logger.AuthWarn("Invalid method for session request: %s", r.Method)
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SessionRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		logger.AuthWarn("Invalid JSON in session request: %v", err)
		respondWithError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if !CheckConsolePassword(req.Password) {
		logger.AuthWarn("Rejected session request from %s: wrong password", r.RemoteAddr)
		respondWithError(w, "Invalid password", http.StatusUnauthorized)
		return
	}

	sessionID := generateSessionID()
	token, err := GenerateSessionToken(sessionID)
	if err != nil {
		logger.Error(logger.AreaAuth, "Failed to generate token for session %s: %v", sessionID, err)
		respondWithError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	logger.AuthInfo("Session %s created for %s", sessionID, r.RemoteAddr)
	respondWithJSON(w, http.StatusOK, SessionResponse{
		Success:   true,
		SessionID: sessionID,
		Token:     token,
		Message:   "Session created",
	})
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	respondWithJSON(w, statusCode, SessionResponse{Success: false, Message: message})
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error(logger.AreaAuth, "Failed to write response: %v", err)
	}
}
