// Package password holds the client-side password policy and the bcrypt
// hash comparison used by edit-mode validation.
//
// The policy mirrors the backend's registration rule: at least 16
// characters with one lowercase letter, one capital letter, one digit, and
// one symbol from the fixed set !@#$%^&*. The comparison never touches
// plaintext equality; the stored bcrypt hash fetched from the backend is
// compared with x/crypto's constant-time verifier.
package password
