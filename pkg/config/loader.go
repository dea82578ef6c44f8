package config

import (
	"fmt"
	"reflect"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"

	"github.com/go-playground/validator/v10"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Load builds the process configuration by layering defaults, then
// environment variables (spec §6), then validating the result. It
// mirrors the teacher's pkg/config loader: structs provider for defaults,
// env/v2 provider for overrides, mapstructure to decode into the typed
// struct, go-playground/validator for structural checks.
func Load() (*Config, error) {
	k := koanf.New(".")
	defaults := Default()

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	envToPath := buildEnvMappings(reflect.TypeOf(Config{}), "")
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key string, value string) (string, any) {
			if path, ok := envToPath[key]; ok {
				return path, value
			}
			return "", nil
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	decoder := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			Metadata:         nil,
		},
	}
	if err := k.UnmarshalWithConf("", cfg, decoder); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildEnvMappings walks the Config struct tree and maps each `env` tag to
// its dotted `koanf` path, so PORT resolves to "server.port" etc.
func buildEnvMappings(t reflect.Type, prefix string) map[string]string {
	mappings := make(map[string]string)
	if t.Kind() != reflect.Struct {
		return mappings
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		koanfTag := strings.Split(field.Tag.Get("koanf"), ",")[0]
		path := koanfTag
		if prefix != "" {
			path = prefix + "." + koanfTag
		}
		if field.Type.Kind() == reflect.Struct {
			for envVar, subPath := range buildEnvMappings(field.Type, path) {
				mappings[envVar] = subPath
			}
			continue
		}
		if envVar := field.Tag.Get("env"); envVar != "" {
			mappings[envVar] = path
		}
	}
	return mappings
}
