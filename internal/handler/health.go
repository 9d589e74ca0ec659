package handler

import (
	"net/http"
	"time"

	"sheinstock/pkg/response"
)

var startedAt = time.Now()

// Status handles GET /api/status.
func Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(startedAt).Round(time.Second).String(),
	})
}
