package orm

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// sqlite默认的连接参数,写事务在开始时即获取写锁
var sqliteDefaultParams = []string{"_busy_timeout=5000", "_txlock=immediate"}

func init() {
	registerDriver(DriverSQLite, &driverSpec{
		poolFunc:        NewSQLitePool,
		uniqueViolation: sqliteUniqueViolation,
		transient:       sqliteTransient,
	})
}

// SQLiteDSN 补全默认的连接参数
func SQLiteDSN(url string) string {
	dsn := strings.TrimPrefix(url, "sqlite3://")
	for _, param := range sqliteDefaultParams {
		key := param[:strings.Index(param, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + param
		} else {
			dsn += "?" + param
		}
	}
	return dsn
}

// NewSQLitePool 构建SQLite连接池,SQLite只有一个写者,连接池固定为一个连接
func NewSQLitePool(config *DBConfig) (*Pool, error) {
	if config == nil {
		return nil, NewDBError(nil, "Not found config")
	}
	if config.URL == "" {
		return nil, NewDBError(nil, "Invalid config")
	}
	single := *config
	single.MaxConn = 1
	single.MaxIdle = 1
	return newPool(DriverSQLite, SQLiteDSN(config.URL), &single)
}

func sqliteUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func sqliteTransient(err error) bool {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
}
