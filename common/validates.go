package common

import (
	"fmt"
	"strings"
)

// StrValidator 字符串验证器
type StrValidator interface {
	// Validate 验证字符串参数是否符合规则,不符合时返回原因
	Validate(param string) error
}

// StringLenValidator 字符串字节长度验证
type StringLenValidator struct {
	Min int //最小长度
	Max int //最大长度
}

// Validate 验证字符串的字节长度
func (p *StringLenValidator) Validate(param string) error {
	strLen := len(param)
	if strLen < p.Min {
		return fmt.Errorf("length %d is less than %d", strLen, p.Min)
	}
	if strLen > p.Max {
		return fmt.Errorf("length %d exceeds %d", strLen, p.Max)
	}
	return nil
}

// NotBlankValidator 非空白
type NotBlankValidator struct {
}

// Validate 验证字符串不是空白
func (p *NotBlankValidator) Validate(param string) error {
	if len(strings.TrimSpace(param)) == 0 {
		return fmt.Errorf("blank value")
	}
	return nil
}

// ValidateAll 依次使用validators验证value,返回第一个错误
func ValidateAll(value string, validators ...StrValidator) error {
	for _, v := range validators {
		if err := v.Validate(value); err != nil {
			return err
		}
	}
	return nil
}
