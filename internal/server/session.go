package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/internal/users"
	"go.uber.org/zap"
)

// Session is the authenticated practice behind a request.
type Session struct {
	UserID  string
	Profile users.Profile
	Records *records.Store
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// authenticate resolves the bearer token into a Session. Every request
// rereads the profile so deleted accounts lose access immediately.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "server.authenticate"

		claims, err := h.tokens.Validate(bearerToken(r))
		if err != nil {
			h.respondErr(w, err, op)
			return
		}
		profile, err := h.users.Get(claims.UserID)
		if err != nil {
			h.respondErr(w, err, op)
			return
		}
		store, err := h.records.Get(claims.UserID)
		if err != nil {
			h.respondErr(w, err, op)
			return
		}

		session := &Session{UserID: claims.UserID, Profile: profile, Records: store}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func (h *handler) session(r *http.Request) *Session {
	s, _ := SessionFrom(r.Context())
	return s
}

type credentials struct {
	Username string `json:"usuario"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expira_en"`
	Account   users.Account `json:"usuario"`
}

func (h *handler) issueToken(username string, profile users.Profile) (tokenResponse, error) {
	token, err := h.tokens.Generate(username, profile.Specialty)
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		Token:     token,
		ExpiresIn: int64(h.tokens.Duration().Seconds()),
		Account:   profile.Public(username),
	}, nil
}

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRegister"

	var reg users.Registration
	if err := decodeJSON(r, &reg); err != nil {
		h.respondErr(w, err, op)
		return
	}
	username := strings.TrimSpace(reg.Username)
	if _, err := h.records.DocumentPath(username); err != nil {
		h.respondErr(w, err, op)
		return
	}
	profile, err := h.users.Register(reg)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if _, err := h.records.Create(username); err != nil {
		h.records.Evict(username)
		if removeErr := h.users.Remove(username); removeErr != nil {
			h.logger.Error("failed to roll back registration",
				zap.String("op", op),
				zap.String("user", username),
				zap.Error(removeErr),
			)
		}
		h.respondErr(w, err, op)
		return
	}

	resp, err := h.issueToken(username, profile)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLogin"

	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.respondErr(w, err, op)
		return
	}
	username := strings.TrimSpace(creds.Username)
	profile, err := h.users.Authenticate(username, creds.Password)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}

	resp, err := h.issueToken(username, profile)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.logger.Info("user logged in",
		zap.String("op", op),
		zap.String("user", username),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleMe(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	h.writeJSON(w, http.StatusOK, s.Profile.Public(s.UserID))
}
