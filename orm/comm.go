// Package orm 提供关系数据库连接池,事务操作以及驱动错误的分类
package orm

import (
	"context"
	"database/sql"
	"fmt"
)

// DBError 数据库操作错误
type DBError struct {
	Msg string
	Err error
}

func (e *DBError) Error() string {
	if e.Err == nil {
		return "DBError msg:" + e.Msg
	}
	return fmt.Sprintf("DBError msg:%s,err:%v", e.Msg, e.Err)
}

// Unwrap returns the cause
func (e *DBError) Unwrap() error {
	return e.Err
}

// NewDBError 构建数据库操作错误
func NewDBError(err error, msg string) *DBError {
	return &DBError{Msg: msg, Err: err}
}

// NewDBErrorf 使用fmt.Sprintf构建
func NewDBErrorf(err error, msgFormat string, args ...interface{}) *DBError {
	return &DBError{Msg: fmt.Sprintf(msgFormat, args...), Err: err}
}

// Executor is satisfied by both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
)
