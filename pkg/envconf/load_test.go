package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type nested struct {
	Host string `env:"ENVCONF_TEST_HOST" envDefault:"localhost"`
	QoS  uint8  `env:"ENVCONF_TEST_QOS" envDefault:"1"`
}

type sample struct {
	Port     uint16        `env:"ENVCONF_TEST_PORT" envDefault:"3001"`
	Level    slog.Level    `env:"ENVCONF_TEST_LEVEL" envDefault:"INFO"`
	Timeout  time.Duration `env:"ENVCONF_TEST_TIMEOUT" envDefault:"10s"`
	Password string        `env:"ENVCONF_TEST_PASSWORD" envDefault:""`
	DSN      string        `env:"ENVCONF_TEST_DSN"`
	Nested   nested
	Ptr      *nested
	ignored  string //nolint:unused
}

//nolint:paralleltest
func TestLoad_DefaultsApplyWhenUnset(t *testing.T) {
	t.Setenv("ENVCONF_TEST_DSN", "file:test.db")

	var cfg sample

	err := Load(&cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 3001 {
		t.Fatalf("port: want 3001, got %d", cfg.Port)
	}
	if cfg.Level != slog.LevelInfo {
		t.Fatalf("level: want INFO, got %v", cfg.Level)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("timeout: want 10s, got %v", cfg.Timeout)
	}
	if cfg.Password != "" {
		t.Fatalf("password: want empty, got %q", cfg.Password)
	}
	if cfg.Nested.Host != "localhost" || cfg.Nested.QoS != 1 {
		t.Fatalf("nested: got %+v", cfg.Nested)
	}
	if cfg.Ptr == nil || cfg.Ptr.Host != "localhost" {
		t.Fatalf("pointer struct not allocated and loaded: %+v", cfg.Ptr)
	}
}

//nolint:paralleltest
func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("ENVCONF_TEST_DSN", "postgres://x")
	t.Setenv("ENVCONF_TEST_PORT", "8080")
	t.Setenv("ENVCONF_TEST_LEVEL", "DEBUG")
	t.Setenv("ENVCONF_TEST_QOS", "2")

	var cfg sample

	err := Load(&cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("port: want 8080, got %d", cfg.Port)
	}
	if cfg.Level != slog.LevelDebug {
		t.Fatalf("level: want DEBUG, got %v", cfg.Level)
	}
	if cfg.Nested.QoS != 2 {
		t.Fatalf("qos: want 2, got %d", cfg.Nested.QoS)
	}
}

//nolint:paralleltest
func TestLoad_MissingRequired(t *testing.T) {
	var cfg sample

	err := Load(&cfg)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

//nolint:paralleltest
func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("ENVCONF_TEST_DSN", "x")
	t.Setenv("ENVCONF_TEST_PORT", "not-a-port")

	var cfg sample

	err := Load(&cfg)
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dst  any
	}{
		{name: "nil", dst: nil},
		{name: "struct_value", dst: sample{}},
		{name: "pointer_to_int", dst: new(int)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Load(tt.dst)
			if err == nil {
				t.Fatalf("expected error for %T", tt.dst)
			}
		})
	}
}
