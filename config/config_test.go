package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoZeroFields(t *testing.T) {
	cfg := Default()

	for _, field := range visit(newVar(*cfg), "Config", false) {
		assert.Fail(t, "zero-value field", field)
	}
}

func TestFromJSON(t *testing.T) {
	t.Run("overlay", func(t *testing.T) {
		cfg, err := FromJSON([]byte(`{"NET": {"Workers": 3, "ReadTimeout": 1000000000}}`))
		require.NoError(t, err)
		require.Equal(t, 3, cfg.NET.Workers)
		require.Equal(t, time.Second, cfg.NET.ReadTimeout)
		require.Equal(t, Default().Headers, cfg.Headers)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := FromJSON([]byte(`{"NET": `))
		require.Error(t, err)
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
