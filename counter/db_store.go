package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/orm"
)

// DBStore 基于关系数据库的Store,同一个id的互斥只由数据库保证(upsert的原子性或者行锁)
type DBStore struct {
	pool     *orm.Pool
	dialect  *dialect
	strategy Strategy
	table    string
	now      func() time.Time
}

// Option DBStore的可选配置
type Option func(*DBStore)

// WithStrategy 设置递增策略
func WithStrategy(strategy Strategy) Option {
	return func(p *DBStore) {
		p.strategy = strategy
	}
}

// WithTable 设置表名
func WithTable(table string) Option {
	return func(p *DBStore) {
		p.table = table
	}
}

// WithClock 设置取得当前时间的函数
func WithClock(now func() time.Time) Option {
	return func(p *DBStore) {
		p.now = now
	}
}

// NewDBStore create DBStore on pool
func NewDBStore(pool *orm.Pool, opts ...Option) (*DBStore, error) {
	if pool == nil {
		return nil, errors.New("pool must be set")
	}
	p := &DBStore{
		pool:     pool,
		strategy: DefaultStrategy,
		table:    DefaultTable,
		now:      Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if _, err := ParseStrategy(string(p.strategy)); err != nil {
		return nil, err
	}
	d, err := newDialect(pool.Driver(), p.table)
	if err != nil {
		return nil, err
	}
	p.dialect = d
	return p, nil
}

// Strategy returns the increment strategy
func (p *DBStore) Strategy() Strategy {
	return p.strategy
}

// Table returns the table name
func (p *DBStore) Table() string {
	return p.table
}

// Init 在事务中创建计数表
func (p *DBStore) Init(ctx context.Context) error {
	op := p.pool.NewOp()
	err := op.DoInTrans(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, p.dialect.createTable)
		return err
	})
	if err != nil {
		return orm.NewDBErrorf(err, "create table %s", p.table)
	}
	c.Infof("Counter table %s ready on %s, strategy:%s", p.table, p.pool.Name(), p.strategy)
	return nil
}

// Fetch implements Store.Fetch
func (p *DBStore) Fetch(ctx context.Context, id string) (*Entry, error) {
	entry, err := p.scanEntry(p.pool.DB().QueryRowContext(ctx, p.dialect.fetch, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(KindNotFound, "fetch", id, nil)
		}
		return nil, p.classify("fetch", id, err)
	}
	return entry, nil
}

// IncrementOrCreate implements Store.IncrementOrCreate
func (p *DBStore) IncrementOrCreate(ctx context.Context, id string) (entry *Entry, err error) {
	switch p.strategy {
	case StrategyTransaction:
		entry, err = p.incrInTrans(ctx, id)
	default:
		entry, err = p.upsert(ctx, id)
	}
	if err != nil {
		return nil, p.classify("increment", id, err)
	}
	return entry, nil
}

func (p *DBStore) upsert(ctx context.Context, id string) (*Entry, error) {
	now := p.now()
	if p.dialect.upsertReturning {
		return p.scanEntry(p.pool.DB().QueryRowContext(ctx, p.dialect.upsert, id, p.dialect.bindTime(now)))
	}

	res, err := p.pool.DB().ExecContext(ctx, p.dialect.upsert, id, p.dialect.bindTime(now))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	switch affected {
	case 1:
		return &Entry{ID: id, Count: 1, ModifiedAt: now}, nil
	case 2:
		count, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		return &Entry{ID: id, Count: count, ModifiedAt: now}, nil
	}
	return nil, fmt.Errorf("unexpected rows affected %d", affected)
}

func (p *DBStore) incrInTrans(ctx context.Context, id string) (*Entry, error) {
	var entry *Entry
	op := p.pool.NewOp()
	err := op.DoInTrans(ctx, &sql.TxOptions{Isolation: p.dialect.isolation}, func(tx *sql.Tx) error {
		now := p.now()
		if _, err := tx.ExecContext(ctx, p.dialect.ensure, id, p.dialect.bindTime(now)); err != nil {
			return err
		}
		cur, err := p.scanEntry(tx.QueryRowContext(ctx, p.dialect.lock, id))
		if err != nil {
			return err
		}
		next := &Entry{ID: id, Count: cur.Count + 1, ModifiedAt: now}
		if now.Before(cur.ModifiedAt) {
			next.ModifiedAt = cur.ModifiedAt
		}
		if _, err = tx.ExecContext(ctx, p.dialect.update, next.Count, p.dialect.bindTime(next.ModifiedAt), id); err != nil {
			return err
		}
		entry = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *DBStore) scanEntry(row *sql.Row) (*Entry, error) {
	var (
		entry      Entry
		modifiedAt orm.Timestamp
	)
	if err := row.Scan(&entry.ID, &entry.Count, &modifiedAt); err != nil {
		return nil, err
	}
	entry.ModifiedAt = modifiedAt.Time
	return &entry, nil
}

// classify 将驱动错误转为计数错误
func (p *DBStore) classify(op, id string, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	kind := KindInternal
	switch {
	case p.pool.IsTransient(err):
		kind = KindTransient
	case p.pool.IsUniqueViolation(err):
		kind = KindConflict
	}
	return newError(kind, op, id, err)
}
