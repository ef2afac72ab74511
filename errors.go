// Copyright GoFrame Author(https://goframe.org). All Rights Reserved.
//
// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT was not distributed with this file,
// You can obtain one at https://github.com/gogf/gf.

package dba

import (
	"errors"

	"github.com/gogf/gf/errors/gerror"
	"github.com/imqs/dba/driver"
)

// Sentinel errors every driver adapter and the connection pool compare
// against with errors.Is. Grounded on the flat error taxonomy the teacher
// builds ad-hoc with gerror.New at each call site; here the taxonomy is
// named up front so callers can branch on it instead of matching strings.
//
// ErrBadConnection is driver.ErrBadConnection itself (not a separate
// sentinel) so that errors.Is matches whether the caller is looking at the
// error from inside package driver's pool retry loop or from Conn/Tx here.
var (
	ErrEOF                       = driver.ErrEOF
	ErrBadConnection             = driver.ErrBadConnection
	ErrNeedMoreData              = errors.New("dba: need more data")
	ErrUnsupported               = driver.ErrUnsupported
	ErrTableNotFound             = errors.New("dba: table not found")
	ErrFieldNotFound             = errors.New("dba: field not found")
	ErrKeyViolation              = errors.New("dba: key violation")
	ErrRelationAlreadyExists     = errors.New("dba: relation already exists")
	ErrTransactionAborted        = errors.New("dba: transaction aborted")
	ErrDatabaseBusy              = errors.New("dba: database busy")
	ErrConnectFailed             = errors.New("dba: connect failed")
	ErrInvalidNumberOfParameters = errors.New("dba: invalid number of parameters")
	ErrNotOneResult              = errors.New("dba: expected exactly one result")
)

// newError wraps msg with the module's error package, the way the teacher
// wraps every ad-hoc failure with gerror.New instead of fmt.Errorf, so that
// stack traces are attached and gerror.Cause still unwraps to the sentinel.
func newError(msg string) error {
	return gerror.New(msg)
}

func wrapError(err error, msg string) error {
	return gerror.Wrap(err, msg)
}
