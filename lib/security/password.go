package security

import (
	"github.com/getAlby/rgbhub.go/common"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordEntropy is the minimum entropy in bits accepted for wallet and
// backup passwords.
const MinPasswordEntropy = 50

// HashPassword : Hash Password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a candidate with either a bcrypt hash or, when the
// configured secret is not a hash, the plain secret.
func CheckPassword(secret, candidate string) bool {
	if secret == "" || candidate == "" {
		return false
	}
	if isBcryptHash(secret) {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(candidate)) == nil
	}
	hashed, err := HashPassword(secret)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate)) == nil
}

func ValidatePasswordStrength(password string) error {
	entropy := passwordvalidator.GetEntropy(password)
	if entropy < MinPasswordEntropy {
		return common.NewError(common.KindValidation, common.KeyWeakPassword)
	}
	return nil
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
