package passwordadapter

import "golang.org/x/crypto/bcrypt"

// BcryptHasher hashes passwords with the library's default cost.
type BcryptHasher struct{}

func (BcryptHasher) Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

func (BcryptHasher) Compare(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
