package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles a user can sign up with. There is no in-band promotion path;
// the role is fixed at signup.
const (
	RoleFarmer   = "farmer"
	RoleCustomer = "customer"
)

// ValidRole reports whether r is one of the roles this marketplace knows.
func ValidRole(r string) bool {
	return r == RoleFarmer || r == RoleCustomer
}

// User is the model for the 'users' table.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Password wraps a plaintext/hash pair so handlers never touch bcrypt
// directly.
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
