package counter

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/d0ngw/countd/orm"
)

// DefaultTable 默认的表名
const DefaultTable = "entries"

var tableNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// dialect 各数据库的SQL,语句中的%[1]s为表名
type dialect struct {
	driver          string
	createTable     string
	fetch           string
	upsert          string
	upsertReturning bool // upsert是否通过RETURNING返回结果
	ensure          string
	lock            string
	update          string // 参数顺序: count, modified_at, id
	isolation       sql.IsolationLevel
	bindTime        func(t time.Time) interface{}
}

func bindTimeValue(t time.Time) interface{} {
	return t
}

// sqlite以文本保存时间,使用定长的格式保证MAX按时间顺序比较
const sqliteTimeLayout = "2006-01-02 15:04:05.000000-07:00"

func bindSQLiteTime(t time.Time) interface{} {
	return t.UTC().Format(sqliteTimeLayout)
}

var dialectTemplates = map[string]*dialect{
	orm.DriverMySQL: {
		createTable: "CREATE TABLE IF NOT EXISTS %[1]s (" +
			"id VARBINARY(64) NOT NULL PRIMARY KEY, " +
			"count BIGINT NOT NULL, " +
			"modified_at DATETIME(6) NOT NULL)",
		fetch: "SELECT id, count, modified_at FROM %[1]s WHERE id = ?",
		upsert: "INSERT INTO %[1]s (id, count, modified_at) VALUES (?, 1, ?) " +
			"ON DUPLICATE KEY UPDATE count = LAST_INSERT_ID(count + 1), " +
			"modified_at = GREATEST(modified_at, VALUES(modified_at))",
		ensure:    "INSERT INTO %[1]s (id, count, modified_at) VALUES (?, 0, ?) ON DUPLICATE KEY UPDATE id = id",
		lock:      "SELECT id, count, modified_at FROM %[1]s WHERE id = ? FOR UPDATE",
		update:    "UPDATE %[1]s SET count = ?, modified_at = ? WHERE id = ?",
		isolation: sql.LevelRepeatableRead,
		bindTime:  bindTimeValue,
	},
	orm.DriverPostgres: {
		createTable: "CREATE TABLE IF NOT EXISTS %[1]s (" +
			"id VARCHAR(64) NOT NULL PRIMARY KEY, " +
			"count BIGINT NOT NULL, " +
			"modified_at TIMESTAMPTZ NOT NULL)",
		fetch: "SELECT id, count, modified_at FROM %[1]s WHERE id = $1",
		upsert: "INSERT INTO %[1]s (id, count, modified_at) VALUES ($1, 1, $2) " +
			"ON CONFLICT (id) DO UPDATE SET count = %[1]s.count + 1, " +
			"modified_at = GREATEST(%[1]s.modified_at, EXCLUDED.modified_at) " +
			"RETURNING id, count, modified_at",
		upsertReturning: true,
		ensure:          "INSERT INTO %[1]s (id, count, modified_at) VALUES ($1, 0, $2) ON CONFLICT (id) DO NOTHING",
		lock:            "SELECT id, count, modified_at FROM %[1]s WHERE id = $1 FOR UPDATE",
		update:          "UPDATE %[1]s SET count = $1, modified_at = $2 WHERE id = $3",
		isolation:       sql.LevelReadCommitted,
		bindTime:        bindTimeValue,
	},
	orm.DriverSQLite: {
		createTable: "CREATE TABLE IF NOT EXISTS %[1]s (" +
			"id VARCHAR(64) NOT NULL PRIMARY KEY, " +
			"count BIGINT NOT NULL, " +
			"modified_at TIMESTAMP NOT NULL)",
		fetch: "SELECT id, count, modified_at FROM %[1]s WHERE id = ?",
		upsert: "INSERT INTO %[1]s (id, count, modified_at) VALUES (?, 1, ?) " +
			"ON CONFLICT (id) DO UPDATE SET count = count + 1, " +
			"modified_at = MAX(modified_at, excluded.modified_at) " +
			"RETURNING id, count, modified_at",
		upsertReturning: true,
		ensure:          "INSERT INTO %[1]s (id, count, modified_at) VALUES (?, 0, ?) ON CONFLICT (id) DO NOTHING",
		// 连接以BEGIN IMMEDIATE开始事务,已经持有写锁
		lock:      "SELECT id, count, modified_at FROM %[1]s WHERE id = ?",
		update:    "UPDATE %[1]s SET count = ?, modified_at = ? WHERE id = ?",
		isolation: sql.LevelDefault,
		bindTime:  bindSQLiteTime,
	},
}

// newDialect 按驱动和表名生成SQL
func newDialect(driver, table string) (*dialect, error) {
	if !tableNameRegexp.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	tpl, ok := dialectTemplates[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	return &dialect{
		driver:          driver,
		createTable:     fmt.Sprintf(tpl.createTable, table),
		fetch:           fmt.Sprintf(tpl.fetch, table),
		upsert:          fmt.Sprintf(tpl.upsert, table),
		upsertReturning: tpl.upsertReturning,
		ensure:          fmt.Sprintf(tpl.ensure, table),
		lock:            fmt.Sprintf(tpl.lock, table),
		update:          fmt.Sprintf(tpl.update, table),
		isolation:       tpl.isolation,
		bindTime:        tpl.bindTime,
	}, nil
}
