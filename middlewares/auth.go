package middlewares

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/oumpowerman/thaoshare/helpers"
	"github.com/oumpowerman/thaoshare/models"
)

const memberKey = "member"

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MemberLookup resolves the token subject to a member record.
type MemberLookup interface {
	GetMember(ctx context.Context, id string) (models.Member, error)
}

func IssueToken(secret string, m models.Member, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(m.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   m.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// MemberAuth validates the bearer token and loads the member it names.
// The role used for authorisation is the stored one, not the token's.
func MemberAuth(secret string, members MemberLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return helpers.JSONErrorStatus(c, fiber.StatusUnauthorized, "TOKEN_REQUIRED", "")
		}

		claims, err := ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			return helpers.JSONErrorStatus(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "")
		}

		member, err := members.GetMember(c.UserContext(), claims.Subject)
		if err != nil {
			return helpers.JSONErrorStatus(c, fiber.StatusUnauthorized, "UNKNOWN_MEMBER", "")
		}

		c.Locals(memberKey, member)
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, ok := CurrentMember(c)
		if !ok || m.Role != models.RoleAdmin {
			return helpers.JSONErrorStatus(c, fiber.StatusForbidden, "ADMIN_ONLY", "")
		}
		return c.Next()
	}
}

func CurrentMember(c *fiber.Ctx) (models.Member, bool) {
	m, ok := c.Locals(memberKey).(models.Member)
	return m, ok
}
