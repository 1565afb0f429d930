// Package cfg loads runtime configuration for the mortality prediction CLI
// from a YAML file with environment-variable overrides.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelSettings declares one model to register with the task.
type ModelSettings struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	ConfigPath string `yaml:"configPath"`
}

// Settings is the resolved runtime configuration.
type Settings struct {
	TrainDataPath string
	TestDataPath  string
	StorePath     string
	TaskFeatures  []string
	TaskTarget    []string
	Models        []ModelSettings
	Metrics       []string
	BatchSize     int
	MetricsPort   int
}

// ConfigFile is the YAML layout of the configuration file.
type ConfigFile struct {
	Data struct {
		TrainPath string `yaml:"trainPath"`
		TestPath  string `yaml:"testPath"`
		StorePath string `yaml:"storePath"`
	} `yaml:"data"`

	Task struct {
		Features []string `yaml:"features"`
		Target   []string `yaml:"target"`
	} `yaml:"task"`

	Models []ModelSettings `yaml:"models"`

	Evaluation struct {
		Metrics   []string `yaml:"metrics"`
		BatchSize int      `yaml:"batchSize"`
	} `yaml:"evaluation"`

	System struct {
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves settings from the file named by CONFIG_FILE, falling back
// to environment variables and defaults.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(payload, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	s := Settings{
		TrainDataPath: getEnvOrDefault("CYCLOPS_TRAIN_DATA", config.Data.TrainPath),
		TestDataPath:  getEnvOrDefault("CYCLOPS_TEST_DATA", config.Data.TestPath),
		StorePath:     getEnvOrDefault("CYCLOPS_STORE_PATH", config.Data.StorePath),
		TaskFeatures:  config.Task.Features,
		TaskTarget:    config.Task.Target,
		Models:        config.Models,
		Metrics:       config.Evaluation.Metrics,
		BatchSize:     config.Evaluation.BatchSize,
		MetricsPort:   config.System.MetricsPort,
	}
	applyDefaults(&s)
	if s.TrainDataPath == "" {
		return Settings{}, fmt.Errorf("no training data path configured")
	}
	return s, nil
}

func loadFromEnv() (Settings, error) {
	s := Settings{
		TrainDataPath: os.Getenv("CYCLOPS_TRAIN_DATA"),
		TestDataPath:  os.Getenv("CYCLOPS_TEST_DATA"),
		StorePath:     os.Getenv("CYCLOPS_STORE_PATH"),
	}
	if features := os.Getenv("CYCLOPS_TASK_FEATURES"); features != "" {
		s.TaskFeatures = splitList(features)
	}
	if target := os.Getenv("CYCLOPS_TASK_TARGET"); target != "" {
		s.TaskTarget = splitList(target)
	}
	if kinds := os.Getenv("CYCLOPS_MODELS"); kinds != "" {
		for _, kind := range splitList(kinds) {
			s.Models = append(s.Models, ModelSettings{Kind: kind})
		}
	}
	if names := os.Getenv("CYCLOPS_METRICS"); names != "" {
		s.Metrics = splitList(names)
	}
	if port := os.Getenv("CYCLOPS_METRICS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid CYCLOPS_METRICS_PORT: %w", err)
		}
		s.MetricsPort = p
	}
	applyDefaults(&s)
	if s.TrainDataPath == "" {
		return Settings{}, fmt.Errorf("CYCLOPS_TRAIN_DATA is required when no config file is set")
	}
	return s, nil
}

func applyDefaults(s *Settings) {
	if len(s.Models) == 0 {
		s.Models = []ModelSettings{{Kind: "sgd_classifier"}}
	}
	if len(s.Metrics) == 0 {
		s.Metrics = []string{"accuracy", "precision", "recall", "f1", "auroc"}
	}
	if s.BatchSize <= 0 {
		s.BatchSize = 1000
	}
	if s.StorePath == "" {
		s.StorePath = "cyclops-models.db"
	}
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
