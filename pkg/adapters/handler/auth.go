package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/clicklink/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	tokenTTL        = 24 * time.Hour
	googleUserInfo  = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateCookieName = "oauthstate"
)

type AuthHandler struct {
	oauthConfig   *oauth2.Config
	jwtSecret     []byte
	frontendURL   string
	allowedEmails []string
	isProduction  bool
	userInfoURL   string
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		jwtSecret:     []byte(cfg.JWTSecret),
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.IsProduction(),
		userInfoURL:   googleUserInfo,
	}
}

// SignToken issues an HS256 admin token for subject
func SignToken(secret []byte, subject string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		log.Printf("Login error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie(stateCookieName)
	if err != nil {
		log.Printf("Callback error: missing oauthstate cookie: %v", err)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if r.FormValue("state") != oauthState.Value {
		log.Printf("Callback error: invalid oauth state")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid oauth state"})
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Printf("Callback error: code exchange failed: %v", err)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Code exchange failed"})
		return
	}

	response, err := h.oauthConfig.Client(r.Context(), token).Get(h.userInfoURL)
	if err != nil {
		log.Printf("Callback error: failed getting user info: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed getting user info"})
		return
	}
	defer response.Body.Close()

	var googleUser GoogleUser
	if err := json.NewDecoder(response.Body).Decode(&googleUser); err != nil {
		log.Printf("Callback error: failed decoding user info: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed getting user info"})
		return
	}

	if !googleUser.VerifiedEmail {
		log.Printf("Callback error: email %s is not verified", googleUser.Email)
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Access denied"})
		return
	}

	if !h.emailAllowed(googleUser.Email) {
		log.Printf("Callback error: email %s not in allowlist", googleUser.Email)
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Access denied"})
		return
	}

	tokenString, expiresAt, err := SignToken(h.jwtSecret, googleUser.Email, tokenTTL)
	if err != nil {
		log.Printf("Callback error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    tokenString,
		Expires:  expiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	log.Printf("Login successful for user: %s", googleUser.Email)
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

// An empty allowlist admits any email; Callback has already required it be verified
func (h *AuthHandler) emailAllowed(email string) bool {
	if email == "" {
		return false
	}
	if len(h.allowedEmails) == 0 {
		return true
	}
	return slices.ContainsFunc(h.allowedEmails, func(allowed string) bool {
		return strings.EqualFold(allowed, email)
	})
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
