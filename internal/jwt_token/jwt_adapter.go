package jwttoken

import (
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	authmw "condo/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes JWTService through the auth middleware contract.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	wallet, err := id.ParseAddress(claims.Wallet)
	if err != nil || wallet.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.JWTClaims{Wallet: wallet, JTI: claims.ID}, nil
}
