package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/pthm-cable/thermo/colony"
	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	agentID := flag.String("agent-id", "", "Agent identifier (empty = config or generated)")
	eMax := flag.Float64("e-max", 0, "Energy capacity (0 = use config)")
	scarcity := flag.Float64("scarcity", -1, "Environmental scarcity 0..1 (negative = use config)")
	noEthics := flag.Bool("no-ethics", false, "Disable the self-preservation refusal rules")
	maxSteps := flag.Int("steps", -1, "Stop after N steps (0 = until death, negative = use config)")
	verboseEFE := flag.Bool("verbose-efe", false, "Log the EFE breakdown on every step")
	size := flag.Int("colony", 1, "Number of independent organisms")
	spread := flag.Float64("scarcity-spread", 0, "Scarcity range across colony members")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	metricsFile := flag.String("metrics-file", "", "Write Prometheus metrics to this textfile at exit")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	var commands []string
	flag.Func("command", "Command to assess before stepping (repeatable)", func(s string) error {
		commands = append(commands, s)
		return nil
	})

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	runID := uuid.NewString()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("run_id", runID)
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg().Clone()

	// CLI overrides
	if *agentID != "" {
		cfg.Organism.AgentID = *agentID
	}
	if *eMax != 0 {
		cfg.Organism.EMax = *eMax
	}
	if *scarcity >= 0 {
		cfg.Organism.Scarcity = *scarcity
	}
	if *noEthics {
		cfg.Organism.EnableEthics = false
	}
	if *maxSteps >= 0 {
		cfg.Simulation.MaxSteps = *maxSteps
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	var metrics *telemetry.Metrics
	if *metricsFile != "" {
		metrics = telemetry.NewMetrics(cfg.Telemetry.Namespace)
	}

	c, err := colony.New(cfg, colony.Options{
		Size:           *size,
		ScarcitySpread: *spread,
		Verbose:        *verboseEFE,
		Logger:         logger,
		Metrics:        metrics,
		Output:         out,
	})
	if err != nil {
		slog.Error("failed to create colony", "error", err)
		os.Exit(1)
	}

	slog.Info("starting run",
		"organisms", c.Size(),
		"e_max", cfg.Organism.EMax,
		"scarcity", cfg.Organism.Scarcity,
		"ethics", cfg.Organism.EnableEthics,
		"max_steps", cfg.Simulation.MaxSteps,
		"commands", len(commands),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c.Run(ctx, cfg.Simulation.MaxSteps, commands); err != nil {
		slog.Warn("run interrupted", "error", err)
	}

	for _, org := range c.Members() {
		slog.Info("final state", "agent_id", org.AgentID(), "organism", org.String())
	}
	for _, cmd := range commands {
		refused := 0
		for _, org := range c.Members() {
			if refuse, _ := org.CanRefuseCommand(cmd); refuse {
				refused++
			}
		}
		slog.Info("command after run", "command", truncate(cmd, 60), "refused_by", refused)
	}
	slog.Info("summary", "run", telemetry.SummarizeLifetimes(c.Lifetimes().Records()))

	if err := metrics.WriteTextfile(*metricsFile); err != nil {
		slog.Error("failed to write metrics", "error", err)
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
