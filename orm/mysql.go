package orm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL错误码
const (
	mysqlErrDupEntry         = 1062
	mysqlErrLockWaitTimeout  = 1205
	mysqlErrLockDeadlock     = 1213
	mysqlErrTooManyConns     = 1040
	mysqlErrServerShutdown   = 1053
	mysqlErrQueryInterrupted = 1317
)

func init() {
	registerDriver(DriverMySQL, &driverSpec{
		poolFunc:        NewMySQLPool,
		uniqueViolation: mysqlUniqueViolation,
		transient:       mysqlTransient,
	})
}

// MySQLDSN 构建MySQL的DSN,时间使用UTC并解析为time.Time
func MySQLDSN(config *DBConfig) (string, error) {
	url := strings.TrimPrefix(config.URL, "mysql://")
	var cfg *mysql.Config
	if strings.Contains(url, "/") {
		parsed, err := mysql.ParseDSN(url)
		if err != nil {
			return "", err
		}
		cfg = parsed
	} else {
		if config.User == "" || config.Schema == "" {
			return "", fmt.Errorf("need user and schema for mysql address %s", url)
		}
		cfg = mysql.NewConfig()
		cfg.User = config.User
		cfg.Passwd = config.Pass
		cfg.Net = "tcp"
		cfg.Addr = url
		cfg.DBName = config.Schema
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// NewMySQLPool 构建MySql数据库连接池
func NewMySQLPool(config *DBConfig) (*Pool, error) {
	if config == nil {
		return nil, NewDBError(nil, "Not found config")
	}
	dsn, err := MySQLDSN(config)
	if err != nil {
		return nil, NewDBError(err, "Invalid config")
	}
	return newPool(DriverMySQL, dsn, config)
}

func mysqlUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDupEntry
}

func mysqlTransient(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	switch myErr.Number {
	case mysqlErrLockDeadlock, mysqlErrLockWaitTimeout, mysqlErrTooManyConns, mysqlErrServerShutdown, mysqlErrQueryInterrupted:
		return true
	}
	return false
}
