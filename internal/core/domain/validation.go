package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Password length bounds. bcrypt ignores everything past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	MinFullNameLength = 4
	MaxFullNameLength = 30
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports a ValidationFailed error for an empty or malformed address.
func ValidateEmail(email string) error {
	if email == "" {
		return NewError(KindValidationFailed, "email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return WrapError(KindValidationFailed, "please enter a valid email", err)
	}
	return nil
}

// ValidatePassword enforces the password length policy.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return NewError(KindValidationFailed, "password is required")
	case len(password) < MinPasswordLength:
		return NewError(KindValidationFailed, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case len(password) > MaxPasswordLength:
		return NewError(KindValidationFailed, fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}

type profileRules struct {
	FullName string `validate:"omitempty,min=4,max=30"`
	Phone    string `validate:"omitempty,max=32"`
}

// ValidateProfile checks the optional profile fields supplied at registration.
func ValidateProfile(fullName, phone string) error {
	err := validate.Struct(profileRules{FullName: strings.TrimSpace(fullName), Phone: strings.TrimSpace(phone)})
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		switch ve[0].Field() {
		case "FullName":
			return WrapError(KindValidationFailed,
				fmt.Sprintf("name must be between %d and %d characters", MinFullNameLength, MaxFullNameLength), err)
		case "Phone":
			return WrapError(KindValidationFailed, "phone number is too long", err)
		}
	}
	return WrapError(KindValidationFailed, "invalid profile", err)
}

// ValidateRole accepts only the known flat roles.
func ValidateRole(role string) error {
	if role != RoleUser && role != RoleAdmin {
		return NewError(KindValidationFailed, "unknown role")
	}
	return nil
}
