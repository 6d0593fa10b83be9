package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

// AccessTokenClaims is the token shape issued by the identity service.
type AccessTokenClaims struct {
	AccountID uuid.UUID         `json:"account_id"`
	Role      enums.AccountRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the verified caller passed explicitly into services.
type Actor struct {
	AccountID uuid.UUID
	Role      enums.AccountRole
}

func (a Actor) IsBuyer() bool  { return a.Role == enums.AccountRoleBuyer }
func (a Actor) IsSeller() bool { return a.Role == enums.AccountRoleSeller }
func (a Actor) IsAdmin() bool  { return a.Role == enums.AccountRoleAdmin }

// Valid reports whether the actor carries an identity and a known role.
func (a Actor) Valid() bool {
	return a.AccountID != uuid.Nil && a.Role.IsValid()
}

// Actor converts verified claims into the caller identity.
func (c AccessTokenClaims) Actor() Actor {
	return Actor{AccountID: c.AccountID, Role: c.Role}
}
