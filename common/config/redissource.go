package config

import (
	"strings"

	"github.com/mediocregopher/radix/v3"
	"github.com/sirupsen/logrus"
)

// RedisConfigStore reads option overrides from the senticord_config hash,
// allowing runtime configuration without restarting with new env vars.
type RedisConfigStore struct {
	Pool *radix.Pool
}

func (rs *RedisConfigStore) GetValue(key string) interface{} {
	prefixStripped := strings.TrimPrefix(key, "senticord.")

	var v string
	err := rs.Pool.Do(radix.Cmd(&v, "HGET", "senticord_config", prefixStripped))
	if err != nil {
		logrus.WithError(err).Error("[redis_config_source] failed retrieving value")
		return nil
	}

	if v == "" {
		return nil
	}

	return v
}

func (rs *RedisConfigStore) SaveValue(key, value string) error {
	prefixStripped := strings.TrimPrefix(key, "senticord.")
	return rs.Pool.Do(radix.Cmd(nil, "HSET", "senticord_config", prefixStripped, value))
}

func (rs *RedisConfigStore) Name() string {
	return "redis"
}
