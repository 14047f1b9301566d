package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/security"
	"github.com/cgscacau/yieldlab/src/security/validation"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/store"
	"github.com/cgscacau/yieldlab/src/utils"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var passwordRegex = regexp.MustCompile(`^.{6,}$`)

const (
	DefaultPortfolioName        = "Carteira Principal"
	DefaultPortfolioDescription = "Portfólio padrão"
)

// Authenticator is the identity provider's password flow.
type Authenticator interface {
	SignUp(ctx context.Context, email, password, displayName string) (*security.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*security.AuthSession, error)
}

type AuthHandler struct {
	auth       Authenticator
	portfolios services.PortfolioService
}

func NewAuthHandler(auth Authenticator, portfolios services.PortfolioService) *AuthHandler {
	return &AuthHandler{auth: auth, portfolios: portfolios}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request, register bool) (*credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	c.Email = strings.ToLower(validation.SanitizeText(strings.TrimSpace(c.Email)))
	c.DisplayName = validation.SanitizeText(c.DisplayName)
	c.Password = strings.TrimSpace(c.Password)

	if !emailRegex.MatchString(c.Email) {
		utils.SendJSONError(w, "Invalid email format", http.StatusBadRequest)
		return nil, false
	}
	if !register {
		if c.Password == "" {
			utils.SendJSONError(w, "Password is required", http.StatusBadRequest)
			return nil, false
		}
		return &c, true
	}
	if !passwordRegex.MatchString(c.Password) {
		utils.SendJSONError(w, "Password must be at least 6 characters long", http.StatusBadRequest)
		return nil, false
	}
	if err := validation.ValidateStringMaxLength(c.DisplayName, 50, "displayName"); err != nil {
		utils.SendJSONError(w, validationMessage(err), http.StatusBadRequest)
		return nil, false
	}
	return &c, true
}

func sendAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, security.ErrEmailExists):
		utils.SendJSONError(w, "Email address already in use", http.StatusConflict)
	case errors.Is(err, security.ErrInvalidCredentials):
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, security.ErrWeakPassword):
		utils.SendJSONError(w, "Password must be at least 6 characters long", http.StatusBadRequest)
	default:
		logger.FromContext(r.Context()).Error("Identity provider call failed", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Erro ao validar token", http.StatusBadGateway)
	}
}

// HandleRegister creates the account and a default portfolio. A failed
// portfolio creation is logged; the account is already usable.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r, true)
	if !ok {
		return
	}
	ctxLogger := logger.FromContext(r.Context())

	session, err := h.auth.SignUp(r.Context(), c.Email, c.Password, c.DisplayName)
	if err != nil {
		sendAuthError(w, r, err)
		return
	}
	ctxLogger.Info("User registered", "uid", session.UID)

	if h.portfolios != nil {
		ctx := store.WithToken(r.Context(), session.IDToken)
		if _, err := h.portfolios.CreatePortfolio(ctx, session.UID, DefaultPortfolioName, DefaultPortfolioDescription); err != nil {
			ctxLogger.Error("Failed to create default portfolio for new user", "uid", session.UID, "error", err)
		}
	}

	utils.SendJSONMessage(w, session, "Usuário registrado com sucesso", http.StatusCreated)
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r, false)
	if !ok {
		return
	}
	session, err := h.auth.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		sendAuthError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("User logged in", "uid", session.UID)
	utils.SendJSON(w, session, http.StatusOK)
}
