package handler

import (
	"net/http"
	"net/url"
)

// Flash-equivalent messages travel in short-lived cookies the next page read
// consumes. Only generic messages are ever set here; risk scores and signals
// never reach the user.
const (
	flashAlertCookie  = "flash_alert"
	flashNoticeCookie = "flash_notice"
)

func setAlert(w http.ResponseWriter, msg string) {
	setFlash(w, flashAlertCookie, msg)
}

func setNotice(w http.ResponseWriter, msg string) {
	setFlash(w, flashNoticeCookie, msg)
}

func setFlash(w http.ResponseWriter, name, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Flash reads and decodes a flash cookie from a request, for views and tests.
func Flash(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	msg, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return msg
}
