package orm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
)

// isTransientConn classifies driver independent connection failures
func isTransientConn(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
