// Package access enforces private-room password checks. The check runs on
// every join attempt and is never cached per session, since room passwords
// can be rotated externally.
package access

import (
	"github.com/jdy4236/mask/internal/auth"
	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/internal/store"
)

// CheckJoin gates a join attempt. Public rooms are always allowed, whatever
// was supplied. Private rooms demand a password and compare it against the
// stored bcrypt hash; bcrypt's comparison does not fail fast on a prefix
// match.
func CheckJoin(room *store.Room, supplied string) error {
	if !room.IsPrivate {
		return nil
	}
	if supplied == "" {
		return domain.ErrPasswordRequired
	}
	if !auth.CheckPassword(room.Password, supplied) {
		return domain.ErrInvalidPassword
	}
	return nil
}
