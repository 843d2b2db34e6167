package httpx

import (
	"encoding/json"
	"net/http"

	"localsphere/internal/dto"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg, code string) {
	WriteJSON(w, status, dto.ErrorResponse{Error: msg, Code: code})
}
