// Package user implements account signup and login. Passwords are stored
// only as bcrypt hashes; login failures are collapsed into a single
// credentials error so responses never reveal whether an email is
// registered.
package user
