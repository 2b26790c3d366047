package middleware

import (
	"fmt"
	"strings"
	"time"

	"lms/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(userID uint, email string, isSystemAdmin bool) (string, error) {
	claims := jwt.MapClaims{
		"userId":        userID,
		"email":         email,
		"isSystemAdmin": isSystemAdmin,
		"iat":           time.Now().Unix(),
		"exp":           time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

// JWTMiddleware checks for a valid JWT token and stores userId and
// isSystemAdmin in the request context.
func JWTMiddleware(c *fiber.Ctx) error {
	userID, isAdmin, err := parseAuthHeader(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": err.Error(),
		})
	}

	c.Locals("userId", userID)
	c.Locals("isSystemAdmin", isAdmin)
	return c.Next()
}

// OptionalJWTMiddleware parses the token when present but lets
// anonymous requests through with userId 0. Used on routes that serve
// public courses.
func OptionalJWTMiddleware(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		c.Locals("userId", uint(0))
		c.Locals("isSystemAdmin", false)
		return c.Next()
	}

	userID, isAdmin, err := parseAuthHeader(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": err.Error(),
		})
	}

	c.Locals("userId", userID)
	c.Locals("isSystemAdmin", isAdmin)
	return c.Next()
}

func parseAuthHeader(c *fiber.Ctx) (uint, bool, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false, fmt.Errorf("missing or invalid Authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, false, fmt.Errorf("invalid Authorization header format")
	}

	tokenString := authHeader[len("Bearer "):]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return 0, false, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["userId"] == nil {
		return 0, false, fmt.Errorf("invalid token payload")
	}

	userID, ok := claims["userId"].(float64) // JWT number claims decode as float64
	if !ok {
		return 0, false, fmt.Errorf("invalid token payload")
	}

	isAdmin, _ := claims["isSystemAdmin"].(bool)
	return uint(userID), isAdmin, nil
}
