package data

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"user_server_go/config"
)

// Dialect captures the few SQL differences between the supported drivers.
type Dialect string

const (
	MySQL  Dialect = Dialect(config.DriverMySQL)
	SQLite Dialect = Dialect(config.DriverSQLite)
)

// DialectFor maps a driver name to its dialect; unknown drivers are treated as MySQL.
func DialectFor(driver string) Dialect {
	if driver == config.DriverSQLite {
		return SQLite
	}
	return MySQL
}

// TableExistsQuery returns a query counting tables named by its single argument.
func (d Dialect) TableExistsQuery() string {
	if d == SQLite {
		return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
}

// AutoIncrementKey returns the column definition of an auto-incrementing primary key.
func (d Dialect) AutoIncrementKey() string {
	if d == SQLite {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGINT PRIMARY KEY AUTO_INCREMENT"
}

// QuoteIdent quotes a table or column name.
func (d Dialect) QuoteIdent(name string) string {
	if d == SQLite {
		return `"` + name + `"`
	}
	return "`" + name + "`"
}

// ValidIdent reports whether name can be used unescaped as a table name.
func ValidIdent(name string) bool {
	return config.ValidIdent(name)
}

const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a unique or primary key violation.
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
