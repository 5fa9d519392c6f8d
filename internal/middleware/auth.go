// Package middleware holds the gin middleware of the returns service.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by StaffAuth.
const (
	ContextStaffEmail = "staffEmail"
	ContextStaffRole  = "staffRole"
)

// StaffClaims are the JWT claims issued to dashboard users.
type StaffClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// StaffAuth validates the staff JWT and stores the reviewer identity in the
// request context.
func StaffAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims := &StaffClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextStaffEmail, claims.Email)
		c.Set(ContextStaffRole, claims.Role)
		c.Next()
	}
}

// RequireStaff rejects tokens without the staff role.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextStaffRole)
		if role != "staff" && role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "staff privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// StorefrontAuth gates the customer-facing endpoints behind the shared
// storefront bearer token. The storefront collaborator performs the actual
// customer identity verification (phone OTP) before calling in.
func StorefrontAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
			c.Abort()
			return
		}
		if token == "" || strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) != token {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
			c.Abort()
			return
		}
		c.Next()
	}
}
