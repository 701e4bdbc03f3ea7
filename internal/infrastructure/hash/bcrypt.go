package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt is the credential hasher for passcodes. bcrypt is deliberately slow
// and salted, which is what keeps the six-digit space from being brute-forced
// offline if digests ever leak.
type Bcrypt struct {
	cost int
}

func NewBcrypt() Bcrypt {
	return Bcrypt{cost: bcrypt.DefaultCost}
}

func (b Bcrypt) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (b Bcrypt) Matches(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
