package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticSource struct {
	name   string
	values map[string]interface{}
}

func (s *staticSource) GetValue(key string) interface{} {
	return s.values[key]
}

func (s *staticSource) Name() string {
	return s.name
}

func TestOptionDefaults(t *testing.T) {
	m := NewConfigManager()

	str := m.RegisterOption("app.name", "", "fallback")
	num := m.RegisterOption("app.count", "", 5)
	flag := m.RegisterOption("app.enabled", "", true)

	m.Load()

	assert.Equal(t, "fallback", str.GetString())
	assert.Equal(t, 5, num.GetInt())
	assert.True(t, flag.GetBool())
}

func TestLaterSourcesWin(t *testing.T) {
	m := NewConfigManager()
	opt := m.RegisterOption("app.name", "", "fallback")

	m.AddSource(&staticSource{name: "first", values: map[string]interface{}{"app.name": "from-first"}})
	m.AddSource(&staticSource{name: "second", values: map[string]interface{}{"app.name": "from-second"}})

	m.Load()

	assert.Equal(t, "from-second", opt.GetString())
	assert.Equal(t, "second", opt.ConfigSource.Name())
}

func TestSourceFallthrough(t *testing.T) {
	m := NewConfigManager()
	opt := m.RegisterOption("app.name", "", "fallback")

	m.AddSource(&staticSource{name: "first", values: map[string]interface{}{"app.name": "from-first"}})
	m.AddSource(&staticSource{name: "second", values: map[string]interface{}{}})

	m.Load()

	// the later source has no value, the earlier one serves it
	assert.Equal(t, "from-first", opt.GetString())
}

func TestTypeCoercion(t *testing.T) {
	m := NewConfigManager()
	num := m.RegisterOption("app.count", "", 5)
	flag := m.RegisterOption("app.enabled", "", false)

	// env style sources only produce strings
	m.AddSource(&staticSource{name: "env", values: map[string]interface{}{
		"app.count":   "12",
		"app.enabled": "yes",
	}})

	m.Load()

	assert.Equal(t, 12, num.GetInt())
	assert.True(t, flag.GetBool())
}

func TestEnvSourceKeyMapping(t *testing.T) {
	t.Setenv("APP_SOME_OPTION", "hello")

	src := &EnvSource{}
	assert.Equal(t, "hello", src.GetValue("app.some_option"))
	assert.Nil(t, src.GetValue("app.other_option"))
}
