package config

import (
	"errors"
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/protoval/protoval/internal/logger"
)

// Version единственная поддерживаемая версия формата конфигурации
const Version = 1

// ConfigLogger настройки логирования
type ConfigLogger struct {
	Level string `mapstructure:"level"`
}

// ConfigGenerator настройки генерации кода
type ConfigGenerator struct {
	// FileSuffix заменяет .proto в имени сгенерированного файла
	FileSuffix string `mapstructure:"file_suffix"`
	// BuilderSuffix добавляется к имени типа сообщения в имени строителя
	BuilderSuffix string `mapstructure:"builder_suffix"`
	EmitBuilders  bool   `mapstructure:"emit_builders"`
	// Parallelism ограничивает число одновременно обрабатываемых типов, 0 без ограничения
	Parallelism int `mapstructure:"parallelism"`
}

// ConfigInterop настройки совместимости
type ConfigInterop struct {
	// PGV переводит правила protoc-gen-validate в опции protoval
	PGV bool `mapstructure:"pgv"`
}

// Config основная структура конфигурации
type Config struct {
	Version   int             `mapstructure:"version"`
	Logger    ConfigLogger    `mapstructure:"logger"`
	Generator ConfigGenerator `mapstructure:"generator"`
	Interop   ConfigInterop   `mapstructure:"interop"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Version: Version,
		Logger:  ConfigLogger{Level: logger.DefaultLevel},
		Generator: ConfigGenerator{
			FileSuffix:    ".pb.validate.go",
			BuilderSuffix: "Builder",
			EmitBuilders:  true,
		},
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error
	if c.Version != Version {
		errs = append(errs, fmt.Errorf("unsupported version %d, expected %d", c.Version, Version))
	}
	if _, err := logger.ParseLevel(c.Logger.Level); err != nil {
		errs = append(errs, fmt.Errorf("logger.level: %w", err))
	}
	if !strings.HasSuffix(c.Generator.FileSuffix, ".go") {
		errs = append(errs, fmt.Errorf("generator.file_suffix %q must end with .go", c.Generator.FileSuffix))
	}
	if c.Generator.BuilderSuffix == "" || !token.IsIdentifier("X"+c.Generator.BuilderSuffix) {
		errs = append(errs, fmt.Errorf("generator.builder_suffix %q is not a valid identifier part", c.Generator.BuilderSuffix))
	}
	if c.Generator.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("generator.parallelism must not be negative"))
	}
	return errors.Join(errs...)
}

// Set применяет параметр плагина вида name=value
func (c *Config) Set(name, value string) error {
	switch name {
	case "log_level":
		c.Logger.Level = value
	case "file_suffix":
		c.Generator.FileSuffix = value
	case "builder_suffix":
		c.Generator.BuilderSuffix = value
	case "emit_builders", "pgv":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		if name == "pgv" {
			c.Interop.PGV = b
		} else {
			c.Generator.EmitBuilders = b
		}
	case "parallelism":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		c.Generator.Parallelism = n
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}
