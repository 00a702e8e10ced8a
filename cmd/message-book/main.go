package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/yearbookflow/internal/models"
	"github.com/Lllllllleong/yearbookflow/internal/services"
)

var (
	messageBookInstance *services.MessageBookFunction
	once                sync.Once
	initErr             error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleMessageBook" is the entry point name configured in GCP.
	functions.HTTP("HandleMessageBook", handleMessageBook)
}

// main is required by the Go Functions Framework.
func main() {}

// handleMessageBook is the HTTP handler for the message book service.
func handleMessageBook(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		messageBookInstance, initErr = services.NewMessageBook(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: MessageBook initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.MessageBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := messageBookInstance.Process(r.Context(), &req)
	if err != nil {
		// The specific error is already logged inside the Process method.
		code := services.StatusCode(err)
		if code == http.StatusInternalServerError {
			http.Error(w, "Internal Server Error: processing failed", code)
			return
		}
		http.Error(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "email", req.Email)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
