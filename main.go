/*
Gridmdp solves grid world Markov decision processes by dynamic programming: policy iteration
(evaluate to convergence, improve greedily, repeat until the policy is stable) or value iteration.
Every step of the solver is published to a single page app showing the values, the policy arrows
of every tied action and the value function surface in realtime. With -console the grid is
solved without a server and the result is printed.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
	"gridmdp/server"
	"gridmdp/server/charts"

	"github.com/joho/godotenv"
)

var (
	configPath *string
	gridPath   *string
	encoding   *string
	goals      *string
	mode       *string
	host       *string
	port       *string
	chartPath  *string
	console    *bool
	dbg        *bool
)

func parseFlags() {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	configPath = flag.String("config", getEnvWithDefault("GRIDMDP_CONFIG", "./config.yaml"), "path to the yaml config")
	gridPath = flag.String("grid", "", "grid file, overrides the config")
	encoding = flag.String("encoding", "", "grid encoding: symbols or rewards")
	goals = flag.String("goals", "", `goal cells as "row,col;row,col", overrides the config`)
	mode = flag.String("mode", "", "policy or value iteration")
	host = flag.String("host", getEnvWithDefault("GRIDMDP_HOST", ""), "The host ip")
	port = flag.String("port", getEnvWithDefault("GRIDMDP_PORT", "8080"), "The host port")
	chartPath = flag.String("chart", "", "write a heat map of the final values to this html file")
	console = flag.Bool("console", false, "solve without serving and print the result")
	dbg = flag.Bool("debug", false, "log every solver step")
	flag.Parse()
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// loadConfig reads the yaml config and applies the flags given on the command line. A missing
// default config file is not an error; the defaults apply.
func loadConfig() (*reinforcement.TrainingConfig, error) {
	given := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { given[f.Name] = true })

	cfg := &reinforcement.TrainingConfig{}
	if _, err := os.Stat(*configPath); err == nil || given["config"] {
		if cfg, err = reinforcement.FromYaml(*configPath); err != nil {
			return nil, fmt.Errorf("config %s: %w", *configPath, err)
		}
	} else {
		log.Printf("[APP] [INFO] no config at %s, using defaults", *configPath)
	}

	if cfg.Algorithm == nil {
		cfg.Algorithm = map[string]string{}
	}
	if given["grid"] {
		cfg.Grid.Path = *gridPath
	}
	if given["encoding"] {
		cfg.Grid.Encoding = *encoding
	}
	if given["mode"] {
		cfg.Algorithm["name"] = *mode
	}
	if given["goals"] {
		pairs, err := parseGoals(*goals)
		if err != nil {
			return nil, err
		}
		cfg.Grid.Goals = pairs
	}
	return cfg, nil
}

// parseGoals reads "row,col;row,col" pairs.
func parseGoals(s string) (pairs [][]int, err error) {
	for _, field := range strings.Split(s, ";") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		coords := strings.Split(field, ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("%w: goal %q is not row,col", reinforcement.ErrConfiguration, field)
		}
		pair := make([]int, 2)
		for i, coord := range coords {
			if pair[i], err = strconv.Atoi(strings.TrimSpace(coord)); err != nil {
				return nil, fmt.Errorf("%w: goal %q: %v", reinforcement.ErrConfiguration, field, err)
			}
		}
		pairs = append(pairs, pair)
	}
	return
}

// loadGrid reads the configured grid and marks the configured goals.
func loadGrid(cfg *reinforcement.TrainingConfig) (*grid_world.Grid, grid_world.Encoding, error) {
	enc, err := grid_world.ParseEncoding(cfg.Grid.Encoding)
	if err != nil {
		return nil, enc, fmt.Errorf("%w: %v", reinforcement.ErrConfiguration, err)
	}
	if cfg.Grid.Path == "" {
		return nil, enc, fmt.Errorf("%w: no grid file, set grid.path or -grid", reinforcement.ErrConfiguration)
	}

	grid, err := grid_world.LoadFile(cfg.Grid.Path, grid_world.LoadOptions{
		Encoding:      enc,
		DefaultReward: cfg.GetHyperParamOrDefault(reinforcement.REWARD, reinforcement.DEFAULT_REWARD),
	})
	if err != nil {
		return nil, enc, err
	}

	positions, err := cfg.Goals()
	if err != nil {
		return nil, enc, err
	}
	if len(positions) > 0 {
		if grid, err = grid.WithGoals(positions...); err != nil {
			return nil, enc, fmt.Errorf("%w: %v", reinforcement.ErrConfiguration, err)
		}
	}
	return grid, enc, nil
}

func runApp() (err error) {
	var cfg *reinforcement.TrainingConfig
	if cfg, err = loadConfig(); err != nil {
		return
	}

	grid, enc, err := loadGrid(cfg)
	if err != nil {
		return
	}
	solverCfg, err := cfg.SolverConfig(enc)
	if err != nil {
		return
	}
	trainOpts, err := cfg.TrainOptions()
	if err != nil {
		return
	}
	solver, err := reinforcement.NewSolver(grid, solverCfg)
	if err != nil {
		return
	}

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer appCancel()

	trainingCtx, trainingCancel, err := cfg.WithTrainingDeadline(appCtx)
	if err != nil {
		return
	}
	defer trainingCancel()

	rows, cols := grid.Dims()
	log.Printf("[APP] [INFO] run %s: %dx%d %v grid from %s, %d goals, %d starts",
		solver.ID(), rows, cols, enc, cfg.Grid.Path, len(grid.Goals()), len(grid.Starts()))
	log.Printf("[APP] [INFO] run %s: %v iteration, gamma %v, theta %v, rewards %v, workers %d",
		solver.ID(), solverCfg.Mode, solverCfg.Gamma, solverCfg.Theta, solverCfg.Rewards, solverCfg.Workers)

	if *console {
		return runConsole(trainingCtx, solver, trainOpts)
	}
	return runServer(appCtx, trainingCtx, solver, trainOpts)
}

// runConsole solves as fast as possible and prints the grid, values and policy.
func runConsole(
	ctx context.Context,
	solver *reinforcement.Solver,
	opts reinforcement.TrainOptions,
) error {
	opts.Tick = 0
	snapshot, err := reinforcement.Train(ctx, solver, opts, debugProgress)

	printer := grid_world.NewPrinter(os.Stdout, true)
	printer.ShowGrid(snapshot.Grid)
	fmt.Println()
	printer.ShowValues(snapshot.Grid, snapshot.Values)
	if snapshot.Policy != nil {
		fmt.Println()
		printer.ShowPolicy(snapshot.Grid, snapshot.Policy)
	}
	fmt.Printf("\n%v after %d iterations, %d sweeps\n", snapshot.Phase, snapshot.Iteration, snapshot.Sweeps)

	if chartErr := writeChart(snapshot); chartErr != nil {
		return errors.Join(err, chartErr)
	}
	return err
}

// runServer trains in the background, publishing every step to the server's views, and serves
// until the app is interrupted. The result stays on display after training ends.
func runServer(
	appCtx, trainingCtx context.Context,
	solver *reinforcement.Solver,
	opts reinforcement.TrainOptions,
) error {
	snapshots := make(chan reinforcement.Snapshot)
	srv, err := server.NewServer(appCtx, *host+":"+*port, solver.Snapshot(), snapshots)
	if err != nil {
		return err
	}

	exportSnapshot := func(ctx context.Context, snapshot reinforcement.Snapshot) {
		debugProgress(ctx, snapshot)
		select {
		case snapshots <- snapshot:
		case <-ctx.Done():
		}
	}

	go func() {
		snapshot, err := reinforcement.Train(trainingCtx, solver, opts, exportSnapshot)
		if err != nil {
			log.Printf("[APP] [WARN] run %s: training stopped: %v", solver.ID(), err)
		}
		if err := writeChart(snapshot); err != nil {
			log.Printf("[APP] [ERROR] %v", err)
		}
	}()

	return srv.Serve(appCtx)
}

func debugProgress(_ context.Context, snapshot reinforcement.Snapshot) {
	if *dbg {
		log.Printf("[SOLVER] [DEBUG] run %s: %v, iteration %d, sweep %d, delta %g",
			snapshot.RunID, snapshot.Phase, snapshot.Iteration, snapshot.Sweeps, snapshot.Delta)
	}
}

// writeChart writes the heat map of the snapshot's values, if a chart file was requested.
func writeChart(snapshot reinforcement.Snapshot) error {
	if *chartPath == "" {
		return nil
	}
	f, err := os.Create(*chartPath)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	defer f.Close()
	if err = charts.Render(f, snapshot); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	log.Printf("[APP] [INFO] wrote %s", *chartPath)
	return nil
}

func main() {
	parseFlags()
	if err := runApp(); err != nil {
		log.Fatalf("[APP] [FATAL] %v", err)
	}
}
