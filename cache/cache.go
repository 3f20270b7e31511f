// Package cache 提供基于Redis的缓存访问
package cache

import (
	"errors"
	"strings"
)

// 缓存的默认参数
const (
	DefaultGroup  = "counter"
	DefaultPrefix = "countd:"
	DefaultExpire = 600
)

// CacheConf 缓存参数的配置
type CacheConf struct {
	Group  string `yaml:"group"`  //Redis组
	Prefix string `yaml:"prefix"` //key前缀
	Expire int    `yaml:"expire"` //过期时间,单位秒,0使用DefaultExpire
}

// Parse implements Configurer
func (p *CacheConf) Parse() error {
	p.Group = strings.TrimSpace(p.Group)
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.Prefix == "" {
		p.Prefix = DefaultPrefix
	}
	if p.Expire < 0 {
		return errors.New("cache expire must not be negative")
	}
	if p.Expire == 0 {
		p.Expire = DefaultExpire
	}
	return nil
}

// ParamConf 转为ParamConf
func (p *CacheConf) ParamConf() *ParamConf {
	return NewParamConf(p.Group, p.Prefix, p.Expire)
}

// Param is the cache param
type Param interface {
	//Group cache group id
	Group() string
	//Key cache key
	Key() string
	//Expire second time
	Expire() int
}

// ParamConf is the cache param conf with cache group,key prefix and expire
type ParamConf struct {
	group     string
	keyPrefix string
	expire    int
}

// NewParamConf create ParamConf
func NewParamConf(group, keyPrefix string, expire int) *ParamConf {
	return &ParamConf{
		group:     group,
		keyPrefix: keyPrefix,
		expire:    expire,
	}
}

// Group return cache group
func (p *ParamConf) Group() string {
	return p.group
}

// Expire return expire second
func (p *ParamConf) Expire() int {
	return p.expire
}

// KeyPrefix return key prefix
func (p *ParamConf) KeyPrefix() string {
	return p.keyPrefix
}

// NewWithExpire create new ParamConf with new expire parameter
func (p *ParamConf) NewWithExpire(expire int) *ParamConf {
	var param = *p
	param.expire = expire
	return &param
}

// NewWithKeyPrefix append keyPrefix to exist ParamConf,return new ParamConf
func (p *ParamConf) NewWithKeyPrefix(keyPrefix string) *ParamConf {
	var param = *p
	param.keyPrefix = p.keyPrefix + keyPrefix
	return &param
}

// NewParamKey create new ParamKey with key
func (p *ParamConf) NewParamKey(key string) *ParamKey {
	return &ParamKey{
		ParamConf: p,
		key:       p.keyPrefix + key,
	}
}

// ParamKey is the cache param with key
type ParamKey struct {
	*ParamConf
	key string
}

// Key implements Param.Key()
func (p *ParamKey) Key() string {
	return p.key
}

// NewWithExpire new key with expire,原有的ParamConf不变
func (p *ParamKey) NewWithExpire(expire int) *ParamKey {
	return &ParamKey{
		ParamConf: p.ParamConf.NewWithExpire(expire),
		key:       p.key,
	}
}
