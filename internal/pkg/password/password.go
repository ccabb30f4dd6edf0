// Package password wraps bcrypt for the admin credential. The service
// stores only the hash; config carries it pre-hashed.
package password

import "golang.org/x/crypto/bcrypt"

const hashCost = bcrypt.DefaultCost

// Hash derives a bcrypt hash suitable for the admin_password_hash config
// field.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports nil when plain matches hash.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
