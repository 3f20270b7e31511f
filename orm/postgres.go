package orm

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL错误码
const (
	pgUniqueViolation     pq.ErrorCode  = "23505"
	pgTooManyConnections  pq.ErrorCode  = "53300"
	pgAdminShutdown       pq.ErrorCode  = "57P01"
	pgTransactionRollback pq.ErrorClass = "40"
	pgConnectionException pq.ErrorClass = "08"
)

func init() {
	registerDriver(DriverPostgres, &driverSpec{
		poolFunc:        NewPostgresPool,
		uniqueViolation: postgresUniqueViolation,
		transient:       postgresTransient,
	})
}

// NewPostgresPool 构建PostgreSQL数据库连接池,URL是lib/pq支持的URI或者key=value连接串
func NewPostgresPool(config *DBConfig) (*Pool, error) {
	if config == nil {
		return nil, NewDBError(nil, "Not found config")
	}
	if config.URL == "" {
		return nil, NewDBError(nil, "Invalid config")
	}
	return newPool(DriverPostgres, config.URL, config)
}

func postgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func postgresTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch {
	case pqErr.Code.Class() == pgTransactionRollback, pqErr.Code.Class() == pgConnectionException:
		return true
	case pqErr.Code == pgTooManyConnections, pqErr.Code == pgAdminShutdown:
		return true
	}
	return false
}
