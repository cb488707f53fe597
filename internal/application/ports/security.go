package ports

// PasswordHasher hashes and verifies passwords (Argon2id). Hash returns a
// self-describing encoded string. Verify reports an error only when the
// encoded hash cannot be parsed; a wrong password is (false, nil).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
}
