package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UID              string `json:"uid"`
	Role             string `json:"role"`
	ProfileCompleted bool   `json:"profileCompleted"`
	IsVerified       bool   `json:"isVerified"`
	TokenType        string `json:"typ,omitempty"` // "", "refresh", "password_reset"
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret        []byte
	RefreshSecret []byte
	Issuer        string
	TTL           time.Duration // access token
	RefreshTTL    time.Duration
	ResetTTL      time.Duration // 密码重置 token
}

func (j *JWTer) Issue(uid, role string, profileCompleted, isVerified bool) (string, error) {
	return j.sign(Claims{
		UID:              uid,
		Role:             role,
		ProfileCompleted: profileCompleted,
		IsVerified:       isVerified,
	}, j.Secret, j.TTL)
}

func (j *JWTer) IssueRefresh(uid string) (string, error) {
	return j.sign(Claims{UID: uid, TokenType: "refresh"}, j.refreshSecret(), j.RefreshTTL)
}

func (j *JWTer) IssueReset(uid string) (string, error) {
	ttl := j.ResetTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return j.sign(Claims{UID: uid, TokenType: "password_reset"}, j.Secret, ttl)
}

func (j *JWTer) sign(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    j.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, j.Secret)
}

func (j *JWTer) ParseRefresh(tokenStr string) (*Claims, error) {
	c, err := j.parse(tokenStr, j.refreshSecret())
	if err != nil {
		return nil, err
	}
	if c.TokenType != "refresh" {
		return nil, errors.New("not a refresh token")
	}
	return c, nil
}

// ParseReset 校验密码重置 token（typ 必须匹配）
func (j *JWTer) ParseReset(tokenStr string) (*Claims, error) {
	c, err := j.parse(tokenStr, j.Secret)
	if err != nil {
		return nil, err
	}
	if c.TokenType != "password_reset" {
		return nil, errors.New("not a reset token")
	}
	return c, nil
}

func (j *JWTer) parse(tokenStr string, secret []byte) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func (j *JWTer) refreshSecret() []byte {
	if len(j.RefreshSecret) > 0 {
		return j.RefreshSecret
	}
	return j.Secret
}
