package counter

import (
	"errors"
	"fmt"
)

// Kind 错误的类别,存储与HTTP层之间以类别而不是错误信息传递失败
type Kind int

// 错误类别
const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalid
	KindTransient
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:  "internal",
	KindNotFound:  "not found",
	KindInvalid:   "invalid",
	KindTransient: "transient",
	KindConflict:  "conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error 计数操作的错误
type Error struct {
	Kind Kind
	Op   string
	ID   string
	Err  error
}

func newError(kind Kind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("counter: %s %q: %s", e.Op, e.ID, e.Kind)
	}
	return fmt.Sprintf("counter: %s %q: %s: %v", e.Op, e.ID, e.Kind, e.Err)
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary 是否可以重试
func (e *Error) Temporary() bool {
	return e.Kind == KindTransient
}

// KindOf 返回err链中第一个*Error的类别,没有时为KindInternal
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// IsNotFound 是否计数不存在
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsInvalid 是否参数错误
func IsInvalid(err error) bool {
	return err != nil && KindOf(err) == KindInvalid
}

// IsTransient 是否暂时性的错误
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}
