package userservice

import (
	"regexp"

	"github.com/sushihentaime/blogify/internal/common"
)

var EmailRX = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateName(v *common.Validator, name string) {
	v.Check(name != "", "name", "must be provided")
	v.Check(v.CheckStringLength(name, 1, 128), "name", "must be between 1 and 128 characters long")
}

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(v.Matches(email, EmailRX), "email", "must be a valid email address")
}

func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(v.CheckStringLength(password, 8, 256), "password", "must be between 8 and 256 characters long")
}

func validateSecret(v *common.Validator, secret string) {
	v.Check(secret != "", "secret", "must be provided")
}

func validatePostID(v *common.Validator, postID string) {
	v.Check(postID != "", "post_id", "must be provided")
	v.Check(len(postID) <= 36, "post_id", "must not be more than 36 characters long")
}
