package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envValue возвращает значение переменной для os.Expand. Имя вида
// VAR:-default дает default, если VAR не задана или пуста.
func envValue(name string) string {
	name, def, _ := strings.Cut(name, ":-")
	if value := os.Getenv(name); value != "" {
		return value
	}
	return def
}

// typed возвращает значение после подстановки переменных. Числа и true/false
// возвращаются типизированными, чтобы viper разобрал их в int и bool поля.
func typed(expanded string) any {
	switch expanded {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(expanded); err == nil {
		return n
	}
	return expanded
}

// expandEnv подставляет переменные окружения ($VAR, ${VAR}, ${VAR:-default})
// во все строковые значения конфигурации
func expandEnv(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		raw := v.GetString(key)
		if !strings.Contains(raw, "$") {
			continue
		}
		v.Set(key, typed(os.Expand(raw, envValue)))
	}
}

// InitConfig читает конфигурационный файл поверх base и возвращает конфигурацию.
// Ключи, отсутствующие в файле, сохраняют значения base; nil base означает
// нулевую конфигурацию.
func InitConfig[C any](configFile string, base *C) (*C, error) {
	v := viper.New()
	ext := strings.TrimLeft(filepath.Ext(configFile), ".")

	v.SetConfigFile(configFile)
	v.SetConfigType(ext)
	err := v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("v.ReadInConfig: %w", err)
	}

	expandEnv(v)

	cfg := base
	if cfg == nil {
		cfg = new(C)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}

	return cfg, nil
}

// Load читает конфигурацию генератора. Пустой путь означает Default.
// Результат проверяется через Validate.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		var err error
		if cfg, err = InitConfig(configFile, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configFile, err)
	}
	return cfg, nil
}
