package internal

import (
	"encoding/json"
	"log"
	"os"

	"github.com/haatos/simple-qa/internal/util"
)

var Config *Configuration

type Configuration struct {
	QueueSize         int64    `json:"queue_size"`
	MaxConcurrentRuns int      `json:"max_concurrent_runs"`
	RunTimeoutMinutes int64    `json:"run_timeout_minutes"`
	WorkerCommand     []string `json:"worker_command"`
	ReportsDir        string   `json:"reports_dir"`
	EnvironmentsPath  string   `json:"environments_path"`
}

func DefaultConfiguration() *Configuration {
	return &Configuration{
		QueueSize:         20,
		MaxConcurrentRuns: 7,
		RunTimeoutMinutes: 30,
		WorkerCommand:     []string{"simpleqa-worker"},
		ReportsDir:        "reports",
		EnvironmentsPath:  "environments.yaml",
	}
}

func InitializeConfiguration() {
	Config = DefaultConfiguration()

	configFileExists, _ := util.PathExists("config.json")
	if !configFileExists {
		b, err := json.MarshalIndent(Config, "", "    ")
		if err != nil {
			log.Fatal(err)
		}
		configFile, err := os.Create("config.json")
		if err != nil {
			log.Fatal(err)
		}
		if _, err := configFile.Write(b); err != nil {
			log.Fatal(err)
		}
	} else {
		configBytes, err := os.ReadFile("config.json")
		if err != nil {
			log.Fatal(err)
		}
		if err := json.Unmarshal(configBytes, &Config); err != nil {
			log.Fatal(err)
		}
	}

	if Config.MaxConcurrentRuns < 1 {
		Config.MaxConcurrentRuns = 1
	}
	if Config.QueueSize < 1 {
		Config.QueueSize = 1
	}
}

func UpdateConfiguration(config *Configuration) error {
	b, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return err
	}

	configFile, err := os.Create("config.json")
	if err != nil {
		return err
	}

	if _, err := configFile.Write(b); err != nil {
		return err
	}

	Config = config

	return nil
}
