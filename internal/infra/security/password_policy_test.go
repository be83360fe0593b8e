package security

import (
	"errors"
	"regexp"
	"testing"
)

func TestDefaultPasswordValidatorAcceptsCompliantPasswords(t *testing.T) {
	validator := DefaultPasswordValidator()

	for _, password := range []string{
		"abc",
		"Password1",
		"p@ssw0rd!",
		"A1b2C3d4E5f6G7h8I9j0K1l2M",
	} {
		if err := validator.Validate(password); err != nil {
			t.Fatalf("Validate(%q) returned error: %v", password, err)
		}
	}
}

func TestDefaultPasswordValidatorRejectsNonCompliantPasswords(t *testing.T) {
	validator := DefaultPasswordValidator()

	for _, password := range []string{
		"",
		"ab",
		"way-too-long-password-over-the-limit",
		"has spaces",
		"badchar^",
		"badchar()",
	} {
		if err := validator.Validate(password); err == nil {
			t.Fatalf("Validate(%q) expected error", password)
		}
	}
}

func TestPasswordValidationErrorCode(t *testing.T) {
	err := DefaultPasswordValidator().Validate("")
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *PasswordValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if verr.Code == "" {
		t.Fatal("validation error must carry a code")
	}
}

func TestRequireDifferentFrom(t *testing.T) {
	validator := NewPasswordValidator(RequireDifferentFrom("current1"))

	if err := validator.Validate("current1"); err == nil {
		t.Fatal("expected error when new password equals old")
	}
	if err := validator.Validate("fresh2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPatternRuleCustomPattern(t *testing.T) {
	digitsOnly := regexp.MustCompile(`^[0-9]{4,8}$`)
	validator := NewPasswordValidator(PatternRule(digitsOnly))

	if err := validator.Validate("123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validator.Validate("abcdef"); err == nil {
		t.Fatal("expected error for non-digit password")
	}
}

func TestRequirePasswordStrengthRule(t *testing.T) {
	validator := NewPasswordValidator(RequirePasswordStrengthRule(3))

	if err := validator.Validate("password"); err == nil {
		t.Fatal("expected error for a dictionary password")
	}
	if err := validator.Validate("mZ7!qA4&kXw2"); err != nil {
		t.Fatalf("unexpected error for strong password: %v", err)
	}
}

func TestRequirePasswordStrengthRulePenalizesUserInputs(t *testing.T) {
	validator := NewPasswordValidator(RequirePasswordStrengthRule(3, "jane.doe@example.com"))

	if err := validator.Validate("jane.doe@example.com"); err == nil {
		t.Fatal("expected error when password matches user input")
	}
}
