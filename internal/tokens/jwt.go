package tokens

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromJWT reads the exp claim of a JWT without verifying its
// signature. The backend signs its session tokens; this side only needs to
// know when to stop trusting them. ok is false for opaque tokens.
func ExpiryFromJWT(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// VerifySubject checks the signature of a backend session token against
// key and returns the user it was issued for: the user_id claim, else sub.
// Only HMAC signatures are accepted and an expired token is rejected.
func VerifySubject(token string, key []byte) (string, error) {
	if len(key) == 0 {
		return "", ErrNoVerificationKey
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUntrustedToken, err)
	}
	subject, ok := subjectFromClaims(claims)
	if !ok {
		return "", fmt.Errorf("%w: no user_id or sub claim", ErrUntrustedToken)
	}
	return subject, nil
}

func subjectFromClaims(claims jwt.MapClaims) (string, bool) {
	switch id := claims["user_id"].(type) {
	case string:
		if id != "" {
			return id, true
		}
	case float64:
		return strconv.FormatInt(int64(id), 10), true
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
