// Package storage holds the gorm-backed implementations of the domain store
// interfaces. Domain packages depend on the interfaces only; this package is
// the single place that knows about MySQL.
package storage

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// isDuplicateKey reports whether an error is the MySQL duplicate-entry error
// (1062), the signal that the slot-key uniqueness constraint rejected a
// write.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
