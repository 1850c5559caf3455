package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"lunchmap/internal/store"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// googleLoginHandler sends the browser to Google's consent screen. A
// random state value is parked in a short-lived cookie and checked again
// in the callback.
func (app *application) googleLoginHandler(w http.ResponseWriter, r *http.Request) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	state := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/v1/auth",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, app.googleOAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// googleCallbackHandler finishes the login: exchange the code, fetch the
// profile, upsert the user and hand the SPA a signed token via redirect.
func (app *application) googleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		app.badRequestResponse(w, r, errors.New("authorization code missing"))
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		app.badRequestResponse(w, r, errors.New("state mismatch"))
		return
	}

	tok, err := app.googleOAuth.Exchange(r.Context(), code)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("code exchange failed: %w", err))
		return
	}

	resp, err := app.googleOAuth.Client(r.Context(), tok).Get(userInfoURL)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("userinfo returned %d", resp.StatusCode))
		return
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	user := &store.User{
		GoogleID:  info.ID,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}
	if err := app.store.Users.Upsert(r.Context(), user); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, user.Email)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	redirect := app.config.frontendURL + "/?token=" + url.QueryEscape(token)
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}

// logoutHandler is stateless; tokens simply expire. The endpoint exists
// so the SPA has something to call when clearing its session.
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}
