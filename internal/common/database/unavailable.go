// internal/common/database/unavailable.go
package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/lib/pq"
)

// errDatabaseClosed is returned by database/sql after Close; it is not exported.
const errDatabaseClosed = "sql: database is closed"

// IsUnavailable reports whether err means the database could not be reached
// at all, as opposed to a query that failed on a live connection.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isUnavailableSQLState(string(pqErr.Code))
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return strings.Contains(err.Error(), errDatabaseClosed)
}

// isUnavailableSQLState matches connection exceptions (class 08) and the
// admin/crash/cannot-connect-now shutdown codes.
func isUnavailableSQLState(code string) bool {
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case "57P01", "57P02", "57P03":
		return true
	}
	return false
}
