// internal/common/database/unavailable_test.go
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "bad conn", err: driver.ErrBadConn, expected: true},
		{name: "conn done wrapped", err: fmt.Errorf("load snapshots: %w", sql.ErrConnDone), expected: true},
		{
			name: "dial refused",
			err: &net.OpError{
				Op:  "dial",
				Net: "tcp",
				Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED},
			},
			expected: true,
		},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "db"}, expected: true},
		{name: "closed pool", err: errors.New("sql: database is closed"), expected: true},
		{name: "connection failure sqlstate", err: &pq.Error{Code: "08006"}, expected: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}, expected: true},
		{name: "cannot connect now", err: &pq.Error{Code: "57P03"}, expected: true},
		{name: "query canceled", err: &pq.Error{Code: "57014"}, expected: false},
		{name: "undefined table", err: &pq.Error{Code: "42P01"}, expected: false},
		{name: "no rows", err: sql.ErrNoRows, expected: false},
		{name: "deadline", err: context.DeadlineExceeded, expected: false},
		{name: "plain", err: errors.New("syntax error"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUnavailable(tt.err))
		})
	}
}
