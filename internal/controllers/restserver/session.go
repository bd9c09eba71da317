package restserver

import (
	"net/http"

	"github.com/chrissnell/pm10dash/internal/session"
)

// currentSession returns the visitor's session from the request cookie
func (h *Handlers) currentSession(req *http.Request) (session.State, bool) {
	cookie, err := req.Cookie(h.controller.cfg.Session.CookieName)
	if err != nil {
		return session.State{}, false
	}
	return h.controller.sessions.Get(cookie.Value)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     h.controller.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.controller.cfg.Server.Cert != "",
	}
	if ttl := h.controller.cfg.Session.TTL; ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}
