package form

import "fmt"

// RegisterDraft holds signup input. Validation runs locally before any
// remote call.
type RegisterDraft struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

const minPasswordLength = 6

// Validate applies the local signup preconditions.
func (d RegisterDraft) Validate() error {
	if d.Username == "" || d.Email == "" || d.Password == "" || d.ConfirmPassword == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if d.Password != d.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if len(d.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}
	return nil
}
