package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/campus-auth/internal/adapters/devauth"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
)

// AuthenticateRequest is the body accepted by POST /authenticate.
type AuthenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityBody is the identity section of a successful response.
type IdentityBody struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// AuthenticateResponse is the success body; it matches the identityhttp default paths.
type AuthenticateResponse struct {
	Token     string       `json:"token"`
	Identity  IdentityBody `json:"identity"`
	RoleClaim string       `json:"roleClaim"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// IdentityHandler serves the development identity service.
type IdentityHandler struct {
	Gateway ports.IdentityGateway
	// Delay is applied before answering; the wait ends early if the client goes away.
	Delay  time.Duration
	Logger *slog.Logger
}

// Authenticate handles POST /authenticate.
func (h IdentityHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req AuthenticateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if h.Delay > 0 {
		t := time.NewTimer(h.Delay)
		defer t.Stop()
		select {
		case <-r.Context().Done():
			return
		case <-t.C:
		}
	}

	res, err := h.Gateway.Authenticate(r.Context(), domainauth.Credentials{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, AuthenticateResponse{
		Token: res.Token,
		Identity: IdentityBody{
			ID:          res.Identity.ID,
			Email:       res.Identity.Email,
			DisplayName: res.Identity.DisplayName,
		},
		RoleClaim: res.Identity.RoleTag,
		ExpiresAt: res.ExpiresAt.UTC(),
	})
}

func (h IdentityHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.IsInvalidCredentials(err):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: string(apperrors.ErrCodeInvalidCredentials),
			Message: "Invalid email or password",
		})
	case errors.Is(err, devauth.ErrThrottled):
		w.Header().Set("Retry-After", "60")
		WriteError(w, ErrorParams{
			Code:    http.StatusTooManyRequests,
			ErrCode: "throttled",
			Message: "Too many login attempts. Please wait and try again.",
		})
	default:
		if h.Logger != nil {
			h.Logger.ErrorContext(r.Context(), "authenticate failed", "error", err)
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: string(apperrors.ErrCodeServiceUnavailable),
			Message: "The authentication service is unavailable.",
		})
	}
}
