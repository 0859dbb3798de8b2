package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"attendtrack/internal/model"
)

// CookieName is the http-only cookie carrying the access token.
const CookieName = "token"

const (
	principalKey = "principal"
	rawTokenKey  = "raw_token"
)

// Accounts confirms that the subject of a token still exists.
type Accounts interface {
	GetAdmin(ctx context.Context, id string) (*model.Admin, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
}

// Guard authenticates requests and enforces roles.
type Guard struct {
	issuer   Issuer
	revoker  Revoker
	accounts Accounts
	log      zerolog.Logger
}

func NewGuard(issuer Issuer, revoker Revoker, accounts Accounts, log zerolog.Logger) *Guard {
	return &Guard{issuer: issuer, revoker: revoker, accounts: accounts, log: log}
}

// TokenFrom reads a bearer token, falling back to the session cookie.
func TokenFrom(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// Require rejects requests without a valid, unrevoked token for an existing
// account holding one of roles. The caller's Principal is stored on the context.
func (g *Guard) Require(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFrom(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, token missing"})
			return
		}
		claims, err := g.issuer.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, token invalid"})
			return
		}
		if g.revoker != nil {
			revoked, err := g.revoker.Revoked(c.Request.Context(), raw)
			if err != nil {
				g.log.Error().Err(err).Msg("revocation lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, token revoked"})
				return
			}
		}
		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized for this resource"})
			return
		}

		exists, err := g.exists(c.Request.Context(), claims)
		if err != nil {
			g.log.Error().Err(err).Msg("account lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, account not found"})
			return
		}

		c.Set(principalKey, claims.Principal())
		c.Set(rawTokenKey, raw)
		c.Next()
	}
}

func (g *Guard) exists(ctx context.Context, claims Claims) (bool, error) {
	switch claims.Role {
	case model.RoleAdmin:
		a, err := g.accounts.GetAdmin(ctx, claims.Subject)
		return a != nil, err
	case model.RoleStudent:
		s, err := g.accounts.GetStudent(ctx, claims.Subject)
		return s != nil, err
	}
	return false, nil
}

func hasRole(role model.Role, allowed []model.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// PrincipalFrom returns the caller set by Require.
func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}
