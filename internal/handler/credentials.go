package handler

import (
	"encoding/json"
	"net/http"

	"sheinstock/internal/db"
	"sheinstock/internal/store"
	"sheinstock/pkg/apierror"
	"sheinstock/pkg/response"
)

// CredentialHandler implements manual credential entry. The abandoned
// token-exchange flow of the platform is deliberately not wired here;
// operators paste the openKeyId/secretKey pair from the seller console.
type CredentialHandler struct {
	store store.Store
}

func NewCredentialHandler(st store.Store) *CredentialHandler {
	return &CredentialHandler{store: st}
}

type credentialRequest struct {
	OpenKeyID string `json:"openKeyId"`
	SecretKey string `json:"secretKey"`
}

// Save handles POST /api/v1/credentials.
func (h *CredentialHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.OpenKeyID == "" || req.SecretKey == "" {
		response.Error(w, apierror.BadRequest("missing openKeyId or secretKey"))
		return
	}

	err := h.store.UpsertCredential(r.Context(), db.Credential{
		OpenKeyID: req.OpenKeyID,
		SecretKey: req.SecretKey,
		// the platform accepts the open key id as access token for
		// manually entered credentials
		AccessToken: req.OpenKeyID,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"message": "credentials stored"})
}

// Status handles GET /api/v1/credentials. The secret never leaves the store.
func (h *CredentialHandler) Status(w http.ResponseWriter, r *http.Request) {
	cred, err := h.store.GetCredential(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if cred == nil {
		response.OK(w, map[string]any{"configured": false})
		return
	}

	masked := "****"
	if len(cred.OpenKeyID) > 4 {
		masked = cred.OpenKeyID[:4] + "****"
	}
	response.OK(w, map[string]any{
		"configured": true,
		"openKeyId":  masked,
		"updatedAt":  cred.UpdatedAt,
	})
}
