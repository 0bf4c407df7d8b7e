package userservice

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var bcryptCost = 12

type password struct {
	plain string
	hash  []byte
}

func (p *password) set(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcryptCost)
	if err != nil {
		return err
	}

	p.plain = pwd
	p.hash = hash

	return nil
}

func (p *password) compare(pwd string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(pwd))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}
