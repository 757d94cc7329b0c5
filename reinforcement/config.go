package reinforcement

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"gridmdp/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// TrainingConfig holds the solver's hyper-parameters, algorithm selection and input grid.
// The yaml tags are lowercase because viper lowercases every key it reads.
type TrainingConfig struct {
	// HyperParams is a list of named values: gamma, theta, reward, workers, maxSweeps, tickMillis.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// Algorithm selects the mode ("name": policy|value) and reward convention ("rewards").
	Algorithm map[string]string `yaml:"algorithm"`
	// TrainingDeadline is a duration after which solving is abandoned.
	TrainingDeadline map[string]string `yaml:"trainingdeadline"`
	Grid             GridConfig        `yaml:"grid"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// GridConfig locates the grid file and the goals to mark on it.
type GridConfig struct {
	Path     string  `yaml:"path"`
	Encoding string  `yaml:"encoding"`
	Goals    [][]int `yaml:"goals"`
}

// Hyper-parameter keys and their defaults, per the usual command line defaults.
const (
	GAMMA       = "gamma"
	THETA       = "theta"
	REWARD      = "reward"
	WORKERS     = "workers"
	MAX_SWEEPS  = "maxSweeps"
	TICK_MILLIS = "tickMillis"

	DEFAULT_GAMMA  = 0.9
	DEFAULT_THETA  = 0.001
	DEFAULT_REWARD = -1.0
)

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if strings.EqualFold(kvp.Key, param) {
			return kvp.Val
		}
	}
	return defaultVal
}

// SetHyperParam overrides or adds a hyper-parameter, e.g. from a command line flag.
func (cfg *TrainingConfig) SetHyperParam(param string, val float64) {
	for i, kvp := range cfg.HyperParams {
		if strings.EqualFold(kvp.Key, param) {
			cfg.HyperParams[i].Val = val
			return
		}
	}
	cfg.HyperParams = append(cfg.HyperParams, HyperParameter{Key: param, Val: val})
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *TrainingConfig) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: training deadline: %v", ErrConfiguration, err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// Goals returns the configured goal coordinates.
func (cfg *TrainingConfig) Goals() ([]grid_world.Position, error) {
	goals := make([]grid_world.Position, 0, len(cfg.Grid.Goals))
	for _, pair := range cfg.Grid.Goals {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: goal %v is not a (row, col) pair", ErrConfiguration, pair)
		}
		goals = append(goals, grid_world.Position{Row: pair[0], Col: pair[1]})
	}
	return goals, nil
}

// SolverConfig converts and validates the training config for an input grid encoding.
func (cfg *TrainingConfig) SolverConfig(enc grid_world.Encoding) (SolverConfig, error) {
	mode, err := ParseMode(cfg.Algorithm["name"])
	if err != nil {
		return SolverConfig{}, err
	}

	reward := cfg.GetHyperParamOrDefault(REWARD, DEFAULT_REWARD)
	rewards, err := ParseRewardSource(cfg.Algorithm["rewards"], enc, reward)
	if err != nil {
		return SolverConfig{}, err
	}

	workers := cfg.GetHyperParamOrDefault(WORKERS, 1)
	if workers != math.Trunc(workers) || workers < 1 {
		return SolverConfig{}, fmt.Errorf("%w: workers must be a positive integer, got %v", ErrConfiguration, workers)
	}

	solverCfg := SolverConfig{
		Mode:    mode,
		Gamma:   cfg.GetHyperParamOrDefault(GAMMA, DEFAULT_GAMMA),
		Theta:   cfg.GetHyperParamOrDefault(THETA, DEFAULT_THETA),
		Rewards: rewards,
		Workers: int(workers),
	}
	return solverCfg, solverCfg.Validate()
}

// TrainOptions converts the driving loop parameters.
func (cfg *TrainingConfig) TrainOptions() (TrainOptions, error) {
	maxSweeps := cfg.GetHyperParamOrDefault(MAX_SWEEPS, 0)
	tick := cfg.GetHyperParamOrDefault(TICK_MILLIS, 0)
	if maxSweeps < 0 || tick < 0 {
		return TrainOptions{}, fmt.Errorf("%w: maxSweeps and tickMillis must be non-negative", ErrConfiguration)
	}
	return TrainOptions{
		MaxSweeps: int(maxSweeps),
		Tick:      time.Duration(tick * float64(time.Millisecond)),
	}, nil
}

// FromYaml reads a config file of the form {kind, def}, where def is a TrainingConfig.
func FromYaml(path string) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := &TrainingConfig{}
	if err = yaml.Unmarshal(def, innerConfig); err != nil {
		return nil, err
	}

	return innerConfig, nil
}
