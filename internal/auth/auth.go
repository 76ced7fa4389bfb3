package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dbadmin/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost - 10 раундов соли
const BcryptCost = 10

// Claims - структура для JWT токена
type Claims struct {
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	UserID int         `json:"user_id"`
	jwt.RegisteredClaims
}

// Identity - проекция claims в пользователя сессии
func (c *Claims) Identity() *domain.SessionIdentity {
	return &domain.SessionIdentity{ID: c.UserID, Name: c.Name, Email: c.Email, Role: c.Role}
}

// HashPassword - хэширование пароля
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("ошибка при создании хэша пароля: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword - проверка пароля
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Tokens выпускает и проверяет bearer токены для API клиентов
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken - создание JWT токена
func (t *Tokens) GenerateToken(who domain.SessionIdentity) (string, error) {
	now := t.now()
	claims := &Claims{
		Name:   who.Name,
		Email:  who.Email,
		Role:   who.Role,
		UserID: who.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken - проверка JWT токена
func (t *Tokens) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("неверный токен")
	}
	if _, ok := domain.ParseRole(string(claims.Role)); !ok {
		return nil, fmt.Errorf("неизвестная роль %q", claims.Role)
	}

	return claims, nil
}

// GetTokenFromRequest - получение токена из заголовка Authorization
func GetTokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
