package cache

import (
	"context"
	"errors"
	"fmt"

	c "github.com/d0ngw/countd/common"
	"github.com/gomodule/redigo/redis"
)

// RedisClient 按组访问Redis,组内按key的hash选择实例
type RedisClient struct {
	groups map[string][]*RedisServer
}

// NewRedisClient create RedisClient with groups
func NewRedisClient(groups map[string][]*RedisServer) *RedisClient {
	return &RedisClient{groups: groups}
}

// NewRedisClientWithConf 使用解析后的配置创建RedisClient
func NewRedisClientWithConf(conf *RedisConf) (*RedisClient, error) {
	if conf == nil {
		return nil, errors.New("no redis conf")
	}
	if err := conf.Parse(); err != nil {
		return nil, err
	}
	return NewRedisClient(conf.groups), nil
}

// HasGroup 是否配置了group
func (p *RedisClient) HasGroup(group string) bool {
	return len(p.groups[group]) > 0
}

func (p *RedisClient) server(param Param) (*RedisServer, error) {
	servers := p.groups[param.Group()]
	if len(servers) == 0 {
		return nil, fmt.Errorf("can't find redis group %s", param.Group())
	}
	if len(servers) == 1 {
		return servers[0], nil
	}
	return servers[MurmurHash32([]byte(param.Key()), 0)%uint32(len(servers))], nil
}

func (p *RedisClient) conn(ctx context.Context, param Param) (redis.Conn, error) {
	server, err := p.server(param)
	if err != nil {
		return nil, err
	}
	if server.pool == nil {
		return nil, fmt.Errorf("redis server %s has no pool", server.ID)
	}
	return server.pool.GetContext(ctx)
}

// Do 在param对应的实例上执行命令
func (p *RedisClient) Do(ctx context.Context, param Param, cmd string, args ...interface{}) (reply interface{}, err error) {
	conn, err := p.conn(ctx, param)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.Do(cmd, args...)
}

// Get 读取key的值,key不存在时ok为false
func (p *RedisClient) Get(ctx context.Context, param Param) (reply interface{}, ok bool, err error) {
	reply, err = p.Do(ctx, param, "GET", param.Key())
	if err != nil {
		return nil, false, err
	}
	return reply, reply != nil, nil
}

// GetInt 读取int值
func (p *RedisClient) GetInt(ctx context.Context, param Param) (value int64, ok bool, err error) {
	reply, ok, err := p.Get(ctx, param)
	if err != nil || !ok {
		return 0, ok, err
	}
	value, err = redis.Int64(reply, nil)
	return value, err == nil, err
}

// Set 设置值,param.Expire()大于0时同时设置过期时间
func (p *RedisClient) Set(ctx context.Context, param Param, value interface{}) error {
	var err error
	if param.Expire() > 0 {
		_, err = p.Do(ctx, param, "SET", param.Key(), value, "EX", param.Expire())
	} else {
		_, err = p.Do(ctx, param, "SET", param.Key(), value)
	}
	return err
}

// SetObject 使用msgpack编码后设置值
func (p *RedisClient) SetObject(ctx context.Context, param Param, value interface{}) error {
	bytes, err := MsgPackEncodeBytes(value)
	if err != nil {
		return err
	}
	return p.Set(ctx, param, bytes)
}

// GetObject 读取并使用msgpack解码到dest
func (p *RedisClient) GetObject(ctx context.Context, param Param, dest interface{}) (ok bool, err error) {
	reply, ok, err := p.Get(ctx, param)
	if err != nil || !ok {
		return false, err
	}
	bytes, err := redis.Bytes(reply, nil)
	if err != nil {
		return false, err
	}
	if err = MsgPackDecodeBytes(bytes, dest); err != nil {
		return false, err
	}
	return true, nil
}

// HGetBytes 读取hash中field的值
func (p *RedisClient) HGetBytes(ctx context.Context, param Param, field string) (value []byte, ok bool, err error) {
	value, err = redis.Bytes(p.Do(ctx, param, "HGET", param.Key(), field))
	if errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Exists key是否存在
func (p *RedisClient) Exists(ctx context.Context, param Param) (bool, error) {
	return redis.Bool(p.Do(ctx, param, "EXISTS", param.Key()))
}

// Del 删除key
func (p *RedisClient) Del(ctx context.Context, param Param) (bool, error) {
	return redis.Bool(p.Do(ctx, param, "DEL", param.Key()))
}

// Expire 按param.Expire()设置过期时间
func (p *RedisClient) Expire(ctx context.Context, param Param) (bool, error) {
	return redis.Bool(p.Do(ctx, param, "EXPIRE", param.Key(), param.Expire()))
}

// Eval 执行只有一个key的脚本,param.Key()作为KEYS[1]
func (p *RedisClient) Eval(ctx context.Context, param Param, script *redis.Script, args ...interface{}) (reply interface{}, err error) {
	conn, err := p.conn(ctx, param)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	keysAndArgs := make([]interface{}, 0, len(args)+1)
	keysAndArgs = append(keysAndArgs, param.Key())
	keysAndArgs = append(keysAndArgs, args...)
	return script.Do(conn, keysAndArgs...)
}

// Ping 检查所有实例是否可用
func (p *RedisClient) Ping(ctx context.Context) error {
	for group, servers := range p.groups {
		for _, server := range servers {
			conn, err := server.pool.GetContext(ctx)
			if err != nil {
				return fmt.Errorf("redis group %s server %s: %w", group, server.Addr(), err)
			}
			_, err = conn.Do("PING")
			conn.Close()
			if err != nil {
				return fmt.Errorf("redis group %s server %s: %w", group, server.Addr(), err)
			}
		}
	}
	return nil
}

// Close 关闭所有的连接池
func (p *RedisClient) Close() error {
	var first error
	for _, servers := range p.groups {
		for _, server := range servers {
			if server.pool == nil {
				continue
			}
			if err := server.pool.Close(); err != nil {
				c.Warnf("Close redis pool %s fail:%v", server.Addr(), err)
				if first == nil {
					first = err
				}
			}
		}
	}
	return first
}
