// Package main provides the battle simulator binary. It loads class tables and
// Lua resolvers, builds the teams of a scenario and plays TeamBattles.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "", "scenario YAML; empty uses content.scenario_file")
	seed := flag.Int64("seed", 0, "random seed; 0 uses simulation.seed, then a random one")
	runs := flag.Int("runs", 0, "number of battles; 0 uses simulation.runs")
	persist := flag.Bool("persist", false, "restore marked members from and save survivors to the database")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *scenarioPath == "" {
		*scenarioPath = cfg.Content.ScenarioFile
	}
	if *runs == 0 {
		*runs = cfg.Simulation.Runs
	}
	if *seed == 0 {
		*seed = cfg.Simulation.Seed
	}
	if *seed == 0 {
		*seed = int64(dice.NewCryptoSource().Intn(math.MaxInt32)) + 1
	}
	if *persist && *runs > 1 {
		logger.Fatal("-persist requires a single run", zap.Int("runs", *runs))
	}

	tables, err := ruleset.LoadClassTables(cfg.Content.ClassesDir)
	if err != nil {
		logger.Fatal("loading class tables", zap.Error(err))
	}
	logger.Info("class tables loaded", zap.Int("count", len(tables)))

	resolvers := skill.NewResolvers()
	if cfg.Content.ScriptsDir != "" {
		mgr := scripting.NewManager(cfg.Scripting.InstructionLimit, logger)
		defer mgr.Close()
		if err := mgr.Load(cfg.Content.ScriptsDir); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		resolvers.AddSource(mgr)
	}

	balance := cfg.Combat.Balance()
	newRegistry := func() *character.Registry {
		reg := character.NewRegistry(balance, resolvers)
		for _, t := range tables {
			if err := reg.RegisterTable(t); err != nil {
				logger.Fatal("registering class", zap.String("class", t.ID), zap.Error(err))
			}
		}
		return reg
	}

	scenario, err := LoadScenario(*scenarioPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}

	sim := &Simulator{
		Scenario:    scenario,
		Balance:     balance,
		NewRegistry: newRegistry,
		Logger:      logger,
	}

	if *persist {
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		wirePersistence(sim, pool.SavedCharacters(), logger)
	}

	logger.Info("simulation starting",
		zap.String("scenario", scenario.Name),
		zap.Int("runs", *runs),
		zap.Int64("seed", *seed),
		zap.Duration("startup", time.Since(start)),
	)

	if *runs == 1 {
		res, err := sim.Run(ctx, 1, *seed)
		if err != nil {
			logger.Fatal("battle failed", zap.Error(err))
		}
		for _, e := range res.Transcript {
			fmt.Println(e.String())
		}
		fmt.Printf("\n%s after %d rounds (seed %d): winner %s\n", scenario.Name, res.Rounds, res.Seed, res.Winner)
		for _, c := range res.Survivors {
			fmt.Printf("  %s\n", c)
		}
		return
	}

	tally, err := sim.RunMany(ctx, *runs, cfg.Simulation.Concurrency, *seed)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
	fmt.Printf("%s (seeds %d..%d)\n", scenario.Name, *seed, *seed+int64(*runs)-1)
	tally.Write(os.Stdout)
	logger.Info("simulation complete", zap.Duration("elapsed", time.Since(start)))
}

// wirePersistence restores members marked restore and saves survivors.
func wirePersistence(sim *Simulator, repo *postgres.SavedCharacterRepository, logger *zap.Logger) {
	sim.Restore = func(ctx context.Context, reg *character.Registry, owner string, m ScenarioMember) (*character.Character, error) {
		c, err := repo.Restore(ctx, reg, owner, m.Name)
		if errors.Is(err, postgres.ErrSavedCharacterNotFound) {
			logger.Info("no saved character, creating fresh", zap.String("owner", owner), zap.String("name", m.Name))
			return nil, nil
		}
		return c, err
	}
	sim.Save = func(ctx context.Context, survivors []*character.Character) error {
		for _, c := range survivors {
			if _, err := repo.Save(ctx, c); err != nil {
				return err
			}
			logger.Info("character saved", zap.String("owner", c.Owner()), zap.String("name", c.Name()), zap.Int("level", c.Level()))
		}
		return nil
	}
}
