package reinforcement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "gridmdp/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

const testConfig = `kind: dynamic-programming
def:
  algorithm:
    name: value
    rewards: destination
  hyperparams:
    - key: gamma
      val: 0.95
    - key: theta
      val: 0.0001
    - key: workers
      val: 2
    - key: maxSweeps
      val: 500
    - key: tickMillis
      val: 50
  trainingdeadline:
    duration: 30s
  grid:
    path: grids/rewards.txt
    encoding: rewards
    goals:
      - [0, 0]
      - [3, 3]
`

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("Given a config file", t, func() {
		cfg, err := FromYaml(writeConfig(t, testConfig))
		So(err, ShouldBeNil)

		Convey("Hyper-parameters are read, with defaults for missing keys", func() {
			So(cfg.GetHyperParamOrDefault(GAMMA, DEFAULT_GAMMA), ShouldEqual, 0.95)
			So(cfg.GetHyperParamOrDefault(REWARD, DEFAULT_REWARD), ShouldEqual, DEFAULT_REWARD)
		})

		Convey("The grid section is read", func() {
			So(cfg.Grid.Path, ShouldEqual, "grids/rewards.txt")
			So(cfg.Grid.Encoding, ShouldEqual, "rewards")
			goals, err := cfg.Goals()
			So(err, ShouldBeNil)
			So(goals, ShouldResemble, []Position{{Row: 0, Col: 0}, {Row: 3, Col: 3}})
		})

		Convey("It converts to a solver config", func() {
			solverCfg, err := cfg.SolverConfig(RewardEncoding)
			So(err, ShouldBeNil)
			So(solverCfg.Mode, ShouldEqual, ValueIteration)
			So(solverCfg.Gamma, ShouldEqual, 0.95)
			So(solverCfg.Theta, ShouldEqual, 0.0001)
			So(solverCfg.Workers, ShouldEqual, 2)
			So(solverCfg.Rewards.Mode, ShouldEqual, DestinationReward)
		})

		Convey("It converts to train options", func() {
			opts, err := cfg.TrainOptions()
			So(err, ShouldBeNil)
			So(opts.MaxSweeps, ShouldEqual, 500)
			So(opts.Tick, ShouldEqual, 50*time.Millisecond)
		})

		Convey("The training deadline bounds the context", func() {
			ctx, cancel, err := cfg.WithTrainingDeadline(context.Background())
			So(err, ShouldBeNil)
			defer cancel()
			deadline, ok := ctx.Deadline()
			So(ok, ShouldBeTrue)
			So(time.Until(deadline), ShouldBeLessThanOrEqualTo, 30*time.Second)
		})

		Convey("Flags override hyper-parameters", func() {
			cfg.SetHyperParam(GAMMA, 0.5)
			cfg.SetHyperParam(REWARD, -2)
			So(cfg.GetHyperParamOrDefault(GAMMA, 0), ShouldEqual, 0.5)
			So(cfg.GetHyperParamOrDefault(REWARD, 0), ShouldEqual, -2.0)
		})
	})

	Convey("Invalid settings are configuration errors", t, func() {
		cfg := &TrainingConfig{Algorithm: map[string]string{"name": "montecarlo"}}
		_, err := cfg.SolverConfig(SymbolEncoding)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)

		cfg = &TrainingConfig{Algorithm: map[string]string{"rewards": "sideways"}}
		_, err = cfg.SolverConfig(SymbolEncoding)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)

		cfg = &TrainingConfig{HyperParams: []HyperParameter{{Key: THETA, Val: 0}}}
		_, err = cfg.SolverConfig(SymbolEncoding)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)

		cfg = &TrainingConfig{HyperParams: []HyperParameter{{Key: WORKERS, Val: 1.5}}}
		_, err = cfg.SolverConfig(SymbolEncoding)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)

		cfg = &TrainingConfig{TrainingDeadline: map[string]string{"duration": "soon"}}
		_, _, err = cfg.WithTrainingDeadline(context.Background())
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)

		cfg = &TrainingConfig{Grid: GridConfig{Goals: [][]int{{1, 2, 3}}}}
		_, err = cfg.Goals()
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
	})

	Convey("An empty config defaults to scalar-reward policy iteration for symbol grids", t, func() {
		cfg := &TrainingConfig{}
		solverCfg, err := cfg.SolverConfig(SymbolEncoding)
		So(err, ShouldBeNil)
		So(solverCfg.Mode, ShouldEqual, PolicyIteration)
		So(solverCfg.Rewards, ShouldResemble, Scalar(DEFAULT_REWARD))
		So(solverCfg.Gamma, ShouldEqual, DEFAULT_GAMMA)
		So(solverCfg.Theta, ShouldEqual, DEFAULT_THETA)
	})

	Convey("A missing config file is an error", t, func() {
		_, err := FromYaml(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
