package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/zapfit/messaging-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller: either an admin-app session
// or a trusted internal service using the shared secret.
type Principal struct {
	SubjectID string
	CompanyID string
	IsService bool
}

// AuthMiddleware validates bearer tokens on internal endpoints. A bearer value
// matching the shared service secret authenticates as an internal service;
// anything else must be a valid session JWT.
type AuthMiddleware struct {
	tokens        *TokenManager
	serviceSecret string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, serviceSecret string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, serviceSecret: serviceSecret}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}
	token := parts[1]

	if m.serviceSecret != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(m.serviceSecret)) == 1 {
		c.Locals(principalKey, &Principal{IsService: true})
		return c.Next()
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{
		SubjectID: claims.SubjectID,
		CompanyID: claims.CompanyID,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
