package orm

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// timestampFormats 驱动以文本返回时间时可能的格式
var timestampFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// Timestamp 可以从time.Time或者文本列中扫描的时间,结果总是UTC
type Timestamp struct {
	Time time.Time
}

// Scan implements sql.Scanner
func (p *Timestamp) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		p.Time = v.UTC()
		return nil
	case string:
		return p.parse(v)
	case []byte:
		return p.parse(string(v))
	case nil:
		return fmt.Errorf("null timestamp")
	}
	return fmt.Errorf("can't scan %T into Timestamp", value)
}

func (p *Timestamp) parse(s string) error {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			p.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("can't parse timestamp %q", s)
}

// Value implements driver.Valuer
func (p Timestamp) Value() (driver.Value, error) {
	return p.Time.UTC(), nil
}
