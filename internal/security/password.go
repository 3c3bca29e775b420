package security

import "golang.org/x/crypto/bcrypt"

// fixed cost factor; bcrypt.DefaultCost is 10
const hashCost = bcrypt.DefaultCost

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash with a plaintext password.
// bcrypt's comparison is constant-structure, never plain string equality.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
