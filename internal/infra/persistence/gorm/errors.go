package gormpersistence

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// isDuplicateEntryError detects unique-constraint violations. MySQL error
// 1062 is checked first; the string fallback covers SQLite in tests.
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
