// Command worldsimd runs the world simulation engine as a standalone
// daemon: it loads configuration, builds (or loads) a scenario, wires the
// EngineManager to the debug/observability HTTP API, and blocks until
// SIGINT/SIGTERM.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/emberreach/worldsim/internal/api"
	"github.com/emberreach/worldsim/internal/config"
	"github.com/emberreach/worldsim/internal/replay"
	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/engine"
	"github.com/emberreach/worldsim/internal/sim/events"
	"github.com/emberreach/worldsim/internal/sim/manager"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML file (defaults to the built-in scenario)")
	flag.Parse()

	log.Println("worldsim: starting")

	appCfg := config.Load()

	sc := config.DefaultScenario()
	if *scenarioPath != "" {
		loaded, err := config.LoadScenario(*scenarioPath)
		if err != nil {
			log.Fatalf("worldsim: loading scenario %s: %v", *scenarioPath, err)
		}
		sc = loaded
		log.Printf("worldsim: loaded scenario from %s", *scenarioPath)
	}

	reg := sim.DefaultRegistry()
	factions := sim.DefaultFactionRegistry()

	factory := func() (*sim.WorldState, error) {
		return config.BuildWorld(sc, reg, factions)
	}

	eventLog := events.NewLog()
	eventLogPath := os.Getenv("WORLDSIM_EVENT_LOG_PATH")
	if eventLogPath == "" {
		eventLogPath = "events.jsonl"
	}
	if err := eventLog.Start(eventLogPath); err != nil {
		log.Printf("worldsim: event log disabled: %v", err)
	} else {
		log.Printf("worldsim: event log at %s", eventLogPath)
	}
	defer eventLog.Stop()

	loopCfg := engine.DefaultConfig()
	loopCfg.CellSize = appCfg.Engine.CellSize
	loopCfg.TickBudget = appCfg.Engine.TickBudget
	loopCfg.NumWorkers = appCfg.Engine.NumWorkers
	loopCfg.Spawn.IntervalTicks = appCfg.Engine.SpawnInterval
	loopCfg.Spawn.MaxPerCamp = appCfg.Engine.SpawnMaxPerCamp

	mgr := manager.New(factory, loopCfg, eventLog, appCfg.Engine.TPS)

	if appCfg.Replay.Enabled {
		recorder, err := replay.NewRecorder(appCfg.Replay.Path)
		if err != nil {
			log.Printf("worldsim: replay recording disabled: %v", err)
		} else {
			defer recorder.Close()
			mgr.SetRecorder(func(trace engine.TickTrace) {
				if err := recorder.Record(trace); err != nil {
					log.Printf("worldsim: replay write failed: %v", err)
				}
			})
			log.Printf("worldsim: replay recording to %s", appCfg.Replay.Path)
		}
	}

	if err := mgr.Start(); err != nil {
		log.Fatalf("worldsim: starting manager: %v", err)
	}
	log.Println("worldsim: engine running")

	if !appCfg.Server.DisableDebugAPI {
		router := api.NewRouter(api.RouterConfig{Manager: mgr})
		srv := &http.Server{
			Addr:         ":" + strconv.Itoa(appCfg.Server.Port),
			Handler:      router,
			ReadTimeout:  appCfg.Server.ReadTimeout,
			WriteTimeout: appCfg.Server.WriteTimeout,
		}
		go func() {
			log.Printf("worldsim: debug API on http://localhost:%d", appCfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("worldsim: debug API stopped: %v", err)
			}
		}()
		defer srv.Close()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("worldsim: shutting down")
	mgr.Shutdown()
	log.Println("worldsim: stopped")
}
