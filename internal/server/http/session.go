package httpserver

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

const sessionCookie = "wedding_session"

// sessionFor resolves the caller's session from the signed cookie, creating a
// fresh session (TierNone) when the cookie is absent or invalid. Sessions idle
// longer than sessionTTL are evicted whenever a new one is minted.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session {
	now := s.now()
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, ok := s.parseSessionID(c.Value); ok {
			s.mu.Lock()
			sess, found := s.sessions[id]
			if found {
				sess.lastSeen = now
			}
			s.mu.Unlock()
			if found {
				return sess
			}
		}
	}

	id := uuid.Must(uuid.NewV4()).String()
	sess := s.newSession()
	sess.lastSeen = now
	s.mu.Lock()
	s.evictStale(now)
	s.sessions[id] = sess
	s.mu.Unlock()

	if token, err := s.signSessionID(id); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// evictStale drops idle sessions. Caller holds s.mu.
func (s *Server) evictStale(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > sessionTTL {
			delete(s.sessions, id)
		}
	}
}

func (s *Server) signSessionID(id string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: id})
	return tok.SignedString(s.signKey)
}

func (s *Server) parseSessionID(raw string) (string, bool) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}
