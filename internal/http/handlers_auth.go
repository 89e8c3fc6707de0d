package http

import (
	"log/slog"
	"net/http"
	"time"
)

// The login form never reveals which factor was wrong.
const msgLoginFailed = "Access Code atau PIN salah."

type loginPage struct {
	Error string
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", loginPage{})
	case http.MethodPost:
		s.handleLoginPost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, "login.html", loginPage{Error: "Format permintaan tidak valid"})
		return
	}

	accessCode := r.Form.Get("access_code")
	pin := r.Form.Get("pin")

	if err := s.verifier.Verify(accessCode, pin); err != nil {
		slog.WarnContext(r.Context(), "Login failed")
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", loginPage{Error: msgLoginFailed})
		return
	}

	token, err := s.sessions.Issue(time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Session issue failed", "error", err)
		http.Error(w, "gagal membuat sesi", http.StatusInternalServerError)
		return
	}

	s.sessions.SetCookie(w, token)
	slog.InfoContext(r.Context(), "Login succeeded")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
