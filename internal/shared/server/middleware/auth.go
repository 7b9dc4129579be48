package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gezy-backend/internal/shared/auth"
	"gezy-backend/internal/shared/server/respond"
)

// Context keys set by Auth.
const (
	UserIDKey    = "userId"
	UserEmailKey = "userEmail"
	UserNameKey  = "userName"
	IsGuestKey   = "isGuest"
)

const (
	guestHeader     = "X-Guest-Id"
	guestPrefix     = "guest:"
	maxGuestIDRunes = 64
)

var publicPaths = map[string]struct{}{
	"/api/v1/health": {},
	"/metrics":       {},
}

// AuthConfig selects which identities Auth accepts.
type AuthConfig struct {
	// Verifier checks bearer tokens. Without one every bearer token is refused.
	Verifier *auth.Verifier
	// AllowGuests accepts the X-Guest-Id header as an anonymous identity.
	AllowGuests bool
}

// Identity is the caller resolved by Auth.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Guest  bool
}

// Auth resolves the caller from a bearer token or, when allowed, a guest
// header. Requests without either are rejected.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if _, ok := publicPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		id, ok := resolve(c, cfg)
		if !ok {
			return
		}
		c.Set(UserIDKey, id.UserID)
		if id.Email != "" {
			c.Set(UserEmailKey, id.Email)
		}
		if id.Name != "" {
			c.Set(UserNameKey, id.Name)
		}
		c.Set(IsGuestKey, id.Guest)
		c.Next()
	}
}

func resolve(c *gin.Context, cfg AuthConfig) (Identity, bool) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" || cfg.Verifier == nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return Identity{}, false
		}
		claims, err := cfg.Verifier.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return Identity{}, false
		}
		return Identity{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}, true
	}

	guestID := strings.TrimSpace(c.GetHeader(guestHeader))
	if !cfg.AllowGuests || guestID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return Identity{}, false
	}
	if !validGuestID(guestID) {
		respond.Error(c, http.StatusBadRequest, "invalid_guest_id", "X-Guest-Id must be 1-64 letters, digits, '-' or '_'", nil)
		return Identity{}, false
	}
	return Identity{UserID: guestPrefix + guestID, Guest: true}, true
}

func validGuestID(id string) bool {
	if len(id) > maxGuestIDRunes {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// IdentityFromContext returns the caller stored by Auth.
func IdentityFromContext(c *gin.Context) Identity {
	return Identity{
		UserID: UserIDFromContext(c),
		Email:  UserEmailFromContext(c),
		Name:   UserNameFromContext(c),
		Guest:  IsGuest(c),
	}
}

// UserIDFromContext fetches the user ID set by Auth.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, UserIDKey)
}

func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, UserEmailKey)
}

func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, UserNameKey)
}

// IsGuest reports whether the caller authenticated with a guest header.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(IsGuestKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	return c.GetString(key)
}
