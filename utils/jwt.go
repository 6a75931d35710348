package utils

import (
	"fmt"

	"loadline/config"

	"github.com/golang-jwt/jwt"
)

// ActorClaims is the subset of token claims the dispatch core consumes.
// Credential checks happen upstream; the core only trusts the decoded actor
// identity.
type ActorClaims struct {
	UserID      string
	UserName    string
	Role        string
	CompanyCode string
}

// ValidateToken parses and verifies a bearer token with the shared HMAC secret.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
}

// ExtractActorClaims pulls the actor identity out of a verified token.
func ExtractActorClaims(token *jwt.Token) (*ActorClaims, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	actor := &ActorClaims{}
	if v, ok := claims["userId"].(string); ok {
		actor.UserID = v
	}
	if v, ok := claims["userName"].(string); ok {
		actor.UserName = v
	}
	if v, ok := claims["role"].(string); ok {
		actor.Role = v
	}
	if v, ok := claims["companyCode"].(string); ok {
		actor.CompanyCode = v
	}
	if actor.UserID == "" {
		return nil, fmt.Errorf("token missing userId claim")
	}
	return actor, nil
}
