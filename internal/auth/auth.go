// Package auth implements the three authentication exchanges the startup
// state machine can be asked to perform: cleartext password, MD5, and
// SASL/SCRAM-SHA-256, per spec §4.3.
package auth

import (
	"crypto/md5"
	"encoding/hex"
)

// Cleartext returns the PasswordMessage payload for
// AuthenticationCleartextPassword: the password, verbatim.
func Cleartext(password string) string {
	return password
}

// MD5 returns the PasswordMessage payload for AuthenticationMD5Password:
// "md5" followed by the hex digest of md5(md5(password||username)||salt).
func MD5(username, password string, salt [4]byte) string {
	inner := md5.Sum([]byte(password + username))
	outer := md5.Sum(append(hexDigest(inner), salt[:]...))
	return "md5" + hex.EncodeToString(outer[:])
}

func hexDigest(sum [16]byte) []byte {
	return []byte(hex.EncodeToString(sum[:]))
}
