package hash

import "golang.org/x/crypto/bcrypt"

// Password hashes a plaintext password with bcrypt. The cost comes from
// configuration so a deployment can raise the work factor without a code
// change; values outside bcrypt's range fall back to the library default.
func Password(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Check verifies a plaintext password against a stored digest. A mismatch
// is not an error, it is simply false; never compare digests directly.
func Check(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
