package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Iemelianov/mms-promo-intelligence/config"
	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// JWTMiddleware validates the JWT token provided in the Authorization header.
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Missing or malformed JWT"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Missing or malformed JWT"})
	}

	claims := &models.JwtClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid or expired JWT"})
	}

	c.Locals("claims", claims)
	return c.Next()
}

// ExtractClaims returns the JWT claims stored by JWTMiddleware.
func ExtractClaims(c *fiber.Ctx) (*models.JwtClaims, error) {
	claims, ok := c.Locals("claims").(*models.JwtClaims)
	if !ok {
		return nil, errors.New("no claims in request context")
	}
	return claims, nil
}

// RoleRequired verifies the authenticated user has one of the given roles.
func RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := ExtractClaims(c)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Role not found in token"})
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Insufficient permissions"})
	}
}
