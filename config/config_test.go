package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNoZeroFields(t *testing.T) {
	cfg := Default()

	for _, field := range visit(newVar(*cfg), "Config", false) {
		assert.Fail(t, "zero-value field", field)
	}
}

func TestDecode(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte(`
resolver:
  mode: nginx
dispatch:
  locking: path
net:
  read_timeout: 5s
`), &node))

		cfg := Default()
		require.NoError(t, cfg.DecodeYAML(&node))
		require.Equal(t, MatchNginx, cfg.Resolver.Mode)
		require.Equal(t, LockPath, cfg.Dispatch.Locking)
		require.Equal(t, 5*time.Second, cfg.NET.ReadTimeout)
		require.Equal(t, Default().Headers, cfg.Headers)
	})

	t.Run("json", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.DecodeJSON([]byte(`{"log": {"level": "debug", "format": "json"}}`)))
		require.Equal(t, "debug", cfg.Log.Level)
		require.Equal(t, LogJSON, cfg.Log.Format)
		require.Equal(t, MatchLiteral, cfg.Resolver.Mode)
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := Default()
		require.Error(t, cfg.DecodeJSON([]byte(`{"dispatch": {"locking": "none"}}`)))
	})
}

type variable struct {
	Type  reflect.Type
	Value reflect.Value
}

func newVar(a any) variable {
	return variable{reflect.TypeOf(a), reflect.ValueOf(a)}
}

func visit(a variable, name string, nullable bool) (fields []string) {
	if a.Type.Kind() == reflect.Struct {
		for field := range a.Value.NumField() {
			v1 := variable{a.Type.Field(field).Type, a.Value.Field(field)}
			fieldname := a.Type.Field(field).Name
			isNullable := a.Type.Field(field).Tag.Get("test") == "nullable"
			fields = append(fields, visit(v1, name+"."+fieldname, isNullable)...)
		}

		return fields
	}

	if a.Value.IsZero() && !nullable {
		return []string{name}
	}

	return nil
}
