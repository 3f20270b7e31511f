package orm

import (
	"context"
	"database/sql"

	c "github.com/d0ngw/countd/common"
)

// OpTxFunc 在事务中处理的函数
type OpTxFunc func(tx *sql.Tx) error

// Op 数据库操作接口,与sql.DB对应,封装了事务,不能在多个goroutine中共享
type Op struct {
	pool         *Pool   //数据连接
	tx           *sql.Tx //事务
	txDone       bool    //事务是否结束
	rollbackOnly bool    //是否只回滚
	transDepth   int     //调用的深度
}

// DB sql.DB
func (p *Op) DB() *sql.DB {
	return p.pool.db
}

// Pool pool
func (p *Op) Pool() *Pool {
	return p.pool
}

// Executor 事务中返回sql.Tx,否则返回sql.DB
func (p *Op) Executor() Executor {
	if p.tx != nil {
		return p.tx
	}
	return p.pool.db
}

// InTrans 是否在事务中
func (p *Op) InTrans() bool {
	return p.tx != nil
}

func (p *Op) close() {
	p.tx = nil
	p.rollbackOnly = false
	p.transDepth = 0
}

// 检查事务的状态
func (p *Op) checkTransStatus() error {
	if p.txDone {
		return sql.ErrTxDone
	}
	if p.tx == nil {
		return NewDBError(nil, "Not begin transaction")
	}
	return nil
}

func (p *Op) decrTransDepth() error {
	p.transDepth = p.transDepth - 1
	if p.transDepth < 0 {
		return NewDBError(nil, "Too many invoke commit or rollback")
	}
	return nil
}

// 结束事务,只有最外层的调用才会真正提交或回滚
func (p *Op) finishTrans() error {
	if err := p.checkTransStatus(); err != nil {
		return err
	}
	if err := p.decrTransDepth(); err != nil {
		return err
	}
	if p.transDepth > 0 {
		return nil
	}
	defer p.close()
	p.txDone = true
	if p.rollbackOnly {
		return p.tx.Rollback()
	}
	return p.tx.Commit()
}

// BeginTx 开始事务,支持简单的嵌套调用,如果已经开始了事务,则直接返回成功,嵌套调用时opts被忽略
func (p *Op) BeginTx(ctx context.Context, opts *sql.TxOptions) error {
	if p.tx != nil {
		p.transDepth++
		return nil
	}
	tx, err := p.DB().BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	p.tx = tx
	p.txDone = false
	p.transDepth = 1
	return nil
}

// Commit 提交事务
func (p *Op) Commit() error {
	return p.finishTrans()
}

// Rollback 回滚事务
func (p *Op) Rollback() error {
	p.SetRollbackOnly(true)
	return p.finishTrans()
}

// SetRollbackOnly 设置只回滚
func (p *Op) SetRollbackOnly(rollback bool) {
	p.rollbackOnly = rollback
}

// IsRollbackOnly 是否只回滚
func (p *Op) IsRollbackOnly() bool {
	return p.rollbackOnly
}

// DoInTrans 在事务中执行operation,operation返回错误时回滚,否则提交
func (p *Op) DoInTrans(ctx context.Context, opts *sql.TxOptions, operation OpTxFunc) (err error) {
	if err := p.BeginTx(ctx, opts); err != nil {
		return err
	}
	var succ = false
	defer func() {
		if !succ {
			p.SetRollbackOnly(true)
		}
		transErr := p.finishTrans()
		if transErr != nil && err == nil {
			c.Errorf("Finish transaction err:%v", transErr)
			err = transErr
		}
	}()
	if err = operation(p.tx); err != nil {
		c.Debugf("Operation fail:%v", err)
		return err
	}
	succ = true
	return nil
}
