// Package auth 签发与校验访问令牌，令牌携带调用方身份
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ashwinyue/next-assist/internal/service/catalog"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid token")

// DefaultTokenTTL 默认有效期
const DefaultTokenTTL = 24 * time.Hour

// Claims 令牌载荷
type Claims struct {
	TenantID     string `json:"tenant_id"`
	OperatorID   string `json:"operator_id,omitempty"`
	OperatorRole string `json:"operator_role,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

// Service 令牌服务
type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewService 创建令牌服务，secret 为空时生成随机密钥（重启后旧令牌失效）
func NewService(secret, issuer string) (*Service, error) {
	if secret == "" {
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = base64.StdEncoding.EncodeToString(randomBytes)
	}
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue 为身份签发令牌
func (s *Service) Issue(id catalog.Identity, ttl time.Duration) (string, error) {
	if id.TenantID == "" {
		return "", errors.New("tenant id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	claims := Claims{
		TenantID:     id.TenantID,
		OperatorID:   id.OperatorID,
		OperatorRole: id.OperatorRole,
		CustomerID:   id.CustomerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id.CallerID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse 校验令牌并还原身份
func (s *Service) Parse(tokenString string) (catalog.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return catalog.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TenantID == "" {
		return catalog.Identity{}, fmt.Errorf("%w: missing tenant", ErrInvalidToken)
	}

	return catalog.Identity{
		TenantID:     claims.TenantID,
		OperatorID:   claims.OperatorID,
		OperatorRole: claims.OperatorRole,
		CustomerID:   claims.CustomerID,
	}, nil
}
