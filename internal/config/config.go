/*
 * Copyright (c) 2024. Anton Starikov -- All Rights Reserved
 *
 * This file is part of HPOTC project.
 *
 * HPOTC is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/antst/hpotc/internal/logger"

	"github.com/pborman/getopt/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultMQTTURL      = "tcp://127.0.0.1:1883"
	defaultControlTopic = "hpotc/control"
	defaultStateFile    = "~/.hpotc-state.json"
	defaultDBFile       = "~/.hpotc.db"
	defaultConfigFile   = "config.yaml"
	defaultCycleMinutes = 20
	defaultPollSeconds  = 30
)

type Config struct {
	LogLevel     zapcore.Level   `yaml:"log_level"`
	MQTTConfig   *MQTTConfig     `yaml:"mqtt"`
	StateFile    string          `yaml:"state_file"`
	DBFile       string          `yaml:"db_file"`
	CycleMinutes *int            `yaml:"cycle_minutes"`
	PollSeconds  *int            `yaml:"poll_seconds"`
	Sensors      *SensorsConfig  `yaml:"sensors"`
	Solver       *SolverConfig   `yaml:"solver"`
	Blocking     *BlockingConfig `yaml:"blocking"`
	Sources      *SourcesConfig  `yaml:"sources"`
	Model        *ModelConfig    `yaml:"model"`

	// Run modes, set from flags only.
	CalibrateCycles int  `yaml:"-"`
	ValidateMode    bool `yaml:"-"`
}

func defConfig() *Config {
	return &Config{
		MQTTConfig:   NewMQTTConfig(),
		Sensors:      NewSensorsConfig(),
		Solver:       NewSolverConfig(),
		Blocking:     NewBlockingConfig(),
		Sources:      NewSourcesConfig(),
		Model:        NewModelConfig(),
		StateFile:    defaultStateFile,
		DBFile:       defaultDBFile,
		CycleMinutes: GetPTR(defaultCycleMinutes),
		PollSeconds:  GetPTR(defaultPollSeconds),
	}
}

func prettyPrint(cfg *Config) {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		logger.L().Error("Failed to marshal config for pretty print", err)
		return
	}
	logger.L().Debugf("--- Config ---\n%s\n\n", string(d))
}

func (cfg *Config) FillDefaults() {
	if cfg.CycleMinutes == nil {
		cfg.CycleMinutes = GetPTR(defaultCycleMinutes)
	}
	if cfg.PollSeconds == nil {
		cfg.PollSeconds = GetPTR(defaultPollSeconds)
	}
	cfg.MQTTConfig.FillDefaults()
	cfg.Sensors.FillDefaults()
	cfg.Solver.FillDefaults()
	cfg.Blocking.FillDefaults()
	cfg.Sources.FillDefaults()
	cfg.Model.FillDefaults()
}

func (cfg *Config) CycleDuration() time.Duration {
	return time.Duration(*cfg.CycleMinutes) * time.Minute
}

func (cfg *Config) PollDuration() time.Duration {
	return time.Duration(*cfg.PollSeconds) * time.Second
}

func Get() *Config {
	cfg := defConfig()
	logLevel := getopt.StringLong("log-level", 'l', "", "log levels: debug, info, warn, error, dpanic, panic, fatal")
	configFile := getopt.StringLong("config", 'c', defaultConfigFile, "config file pathname")
	stateFile := getopt.StringLong("state", 's', "", "learning state file pathname")
	dbFile := getopt.StringLong("db", 'd', "", "history DB file pathname")
	calibrate := getopt.IntLong("calibrate", 0, 0, "replay N history cycles through the learner and exit")
	validate := getopt.BoolLong("validate", 0, "run the physics/solver validation grid and exit")

	getopt.Parse()

	if err := readFile(cfg, *configFile); err != nil {
		log.Panicf("GetConfig: %v", err)
	}
	logger.L().Infof("Using config file `%v`", *configFile)

	if *stateFile != "" {
		cfg.StateFile = *stateFile
	}
	if *dbFile != "" {
		cfg.DBFile = *dbFile
	}
	logger.L().Infof("Using state file `%v`, DB file `%v`", cfg.StateFile, cfg.DBFile)

	cfg.CalibrateCycles = *calibrate
	cfg.ValidateMode = *validate

	cfg.FillDefaults()

	if *logLevel != "" {
		if err := cfg.LogLevel.Set(*logLevel); err != nil {
			logger.L().Errorf("Wrong log level `%v`: %v", *logLevel, err)
		}
	}
	logger.SetLogLevel(cfg.LogLevel)

	prettyPrint(cfg)

	return cfg
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

func readFile(cfg *Config, configFileName string) error {
	if !fileExists(configFileName) {
		return nil
	}

	f, err := os.Open(configFileName)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	return nil
}
