package config

import "time"

// Config is the process-wide configuration surface. It is distinct from
// the per-run Configuration *document* (engine/configstore) that holds
// tasks, templates, and workflows — this struct carries the environment
// variables named in spec §6 plus the operational knobs the engine needs
// at construction time (§9 "Implicit global state" redesign: components
// accept this struct, they never read os.Getenv directly).
type Config struct {
	Server      ServerConfig      `koanf:"server"      validate:"required"`
	Scheduler   SchedulerConfig   `koanf:"scheduler"   validate:"required"`
	LLM         LLMConfig         `koanf:"llm"         validate:"required"`
	ConfigStore ConfigStoreConfig `koanf:"config_store" validate:"required"`
	Runtime     RuntimeConfig     `koanf:"runtime"     validate:"required"`
}

// ServerConfig contains HTTP control-surface configuration.
type ServerConfig struct {
	Host string `koanf:"host" env:"HOST"`
	Port int    `koanf:"port" validate:"min=1,max=65535" env:"PORT"`
}

// SchedulerConfig bounds task concurrency per spec §4.6.
type SchedulerConfig struct {
	MaxConcurrentTasks   int           `koanf:"max_concurrent_tasks"   validate:"min=1" env:"MAX_CONCURRENT_TASKS"`
	InterWorkflowPause   time.Duration `koanf:"inter_workflow_pause"                    env:"INTER_WORKFLOW_PAUSE"`
	InterTaskPause       time.Duration `koanf:"inter_task_pause"                        env:"INTER_TASK_PAUSE"`
}

// LLMConfig carries the vendor/endpoint configuration for both the
// chat-relay and direct-streaming client variants (spec §4.2, §6).
type LLMConfig struct {
	ChatAPIURL           string        `koanf:"chat_api_url"            env:"CHAT_API_URL"`
	GenerateReactAPIURL  string        `koanf:"generate_react_api_url"  env:"GENERATE_REACT_API_URL"`
	OpenAIAPIKey         string        `koanf:"openai_api_key"          env:"OPENAI_API_KEY"`
	OpenAIAPIBase        string        `koanf:"openai_api_base"         env:"OPENAI_API_BASE"`
	OpenAIModel          string        `koanf:"openai_model"            env:"OPENAI_MODEL"`
	OpenAIAPIKeyCoder    string        `koanf:"openai_api_key_coder"    env:"OPENAI_API_KEY_CODER"`
	OpenAIAPIBaseCoder   string        `koanf:"openai_api_base_coder"   env:"OPENAI_API_BASE_CODER"`
	OpenAIModelCoder     string        `koanf:"openai_model_coder"      env:"OPENAI_MODEL_CODER"`
	ContinuationCeiling  int           `koanf:"continuation_ceiling"    validate:"min=1" env:"CONTINUATION_CEILING"`
	RequestTimeout       time.Duration `koanf:"request_timeout"         env:"LLM_REQUEST_TIMEOUT"`
}

// ConfigStoreConfig points the Configuration Store at the configs/
// directory named in spec §6.
type ConfigStoreConfig struct {
	Dir string `koanf:"dir" env:"CONFIG_DIR"`
}

// RuntimeConfig contains ambient logging/runtime knobs.
type RuntimeConfig struct {
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error" env:"LOG_LEVEL"`
	LogJSON  bool   `koanf:"log_json"  env:"LOG_JSON"`
}

// Default returns the built-in defaults layered under env/file overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Scheduler: SchedulerConfig{
			MaxConcurrentTasks: 6,
			InterWorkflowPause: 500 * time.Millisecond,
			InterTaskPause:     200 * time.Millisecond,
		},
		LLM: LLMConfig{
			ContinuationCeiling: 8,
			RequestTimeout:      120 * time.Second,
		},
		ConfigStore: ConfigStoreConfig{
			Dir: "configs",
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
			LogJSON:  false,
		},
	}
}
