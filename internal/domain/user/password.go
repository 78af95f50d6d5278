package user

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// hashPassword returns a base64 Argon2id hash of password and its salt.
func hashPassword(password string) (hash, salt string, err error) {
	s := make([]byte, saltLen)
	if _, err := rand.Read(s); err != nil {
		return "", "", errors.Wrap(err, "read salt")
	}
	h := argon2.IDKey([]byte(password), s, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.StdEncoding.EncodeToString(h), base64.StdEncoding.EncodeToString(s), nil
}

// verifyPassword reports whether password matches the stored hash and salt.
func verifyPassword(password, hash, salt string) (bool, error) {
	s, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, errors.Wrap(err, "decode salt")
	}
	want, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false, errors.Wrap(err, "decode hash")
	}
	got := argon2.IDKey([]byte(password), s, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
