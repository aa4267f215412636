package command

// minPasswordLength is the bar the placeholder validator applies.
// LengthHasher is that placeholder; a real
// deployment swaps in a PasswordHasher backed by bcrypt/argon2 without
// touching CheckPassword's call shape.
const minPasswordLength = 8

// LengthHasher is the default PasswordHasher: it accepts any candidate at
// least minPasswordLength long. It never fails with an error; there is no
// infrastructure to fail against.
type LengthHasher struct{}

func (LengthHasher) Verify(candidate string) (bool, error) {
	return len(candidate) >= minPasswordLength, nil
}
