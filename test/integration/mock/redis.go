package mock

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var redisOnce sync.Once
var redisMock *Redis

// Redis is an in-memory Redis shared by every scenario.
type Redis struct {
	Client *redis.Client
	server *miniredis.Miniredis
}

func NewRedis() *Redis {
	redisOnce.Do(
		func() {
			server, err := miniredis.Run()
			if err != nil {
				panic(err)
			}
			redisMock = &Redis{
				Client: redis.NewClient(&redis.Options{Addr: server.Addr()}),
				server: server,
			}
		},
	)

	return redisMock
}

// Clear drops every key.
func (r *Redis) Clear() {
	r.server.FlushAll()
}

// GetJSON decodes the value stored at key into dst without going through the client.
func (r *Redis) GetJSON(key string, dst any) error {
	raw, err := r.server.Get(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return json.Unmarshal([]byte(raw), dst)
}
