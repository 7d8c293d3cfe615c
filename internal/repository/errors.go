// Package repository implements MySQL persistence for the catalogue,
// pricing, promo codes, rentals and accounts.  Sentinel errors declared here
// let handlers and services distinguish expected outcomes from faults; every
// other driver error is wrapped with the failing operation's name.
package repository

import (
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a looked-up row does not exist.  Handlers
// translate it into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state, such
// as a duplicate unique key.  Handlers translate it into an HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrActiveRentalExists is returned by RentalRepo.Create when the viewer
// already holds a non-expired rental for the same movie or pack.
var ErrActiveRentalExists = errors.New("active rental already exists")

// ErrPromoExhausted is returned when the guarded usage increment matched no
// row because the code hit its cap between validation and redemption.
var ErrPromoExhausted = errors.New("promo code usage limit reached")

// ErrPromoInactive is returned when the code was deactivated between
// validation and redemption.
var ErrPromoInactive = errors.New("promo code is no longer active")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateKey  = 1062
	mysqlLockWaitLimit = 1205
	mysqlDeadlock      = 1213
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports whether err is a MySQL duplicate-key error.
func isDuplicate(err error) bool {
	return mysqlErrNumber(err) == mysqlDuplicateKey
}

// isLockConflict reports whether InnoDB aborted the statement because a
// concurrent transaction held the lock it needed.
func isLockConflict(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlDeadlock || n == mysqlLockWaitLimit
}
