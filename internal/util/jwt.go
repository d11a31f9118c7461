package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"learnhub_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

type Claims struct {
	UserID  uint           `json:"user_id"`
	Role    model.UserRole `json:"role"`
	Email   string         `json:"email"`
	Purpose string         `json:"purpose"`
	Stamp   string         `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, error) {
	return generate(user, PurposeAccess, "", secret, expiration)
}

// GenerateResetToken 密码重置令牌，不能当作访问令牌使用。
// 令牌绑定当前密码哈希，密码变更后即失效。
func GenerateResetToken(user *model.User, secret string, expiration time.Duration) (string, error) {
	return generate(user, PurposePasswordReset, PasswordStamp(user.Password), secret, expiration)
}

// PasswordStamp 密码哈希的短指纹
func PasswordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

func generate(user *model.User, purpose, stamp, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		UserID:  user.ID,
		Role:    user.Role,
		Email:   user.Email,
		Purpose: purpose,
		Stamp:   stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	return parse(tokenString, PurposeAccess, secret)
}

func ParseResetToken(tokenString, secret string) (*Claims, error) {
	return parse(tokenString, PurposePasswordReset, secret)
}

func parse(tokenString, purpose, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, errors.New("token purpose mismatch")
	}
	return claims, nil
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
