package main

import (
	"context"

	"github.com/joho/godotenv"

	"msgdrop/internal/app"
	"msgdrop/pkg/config"
	"msgdrop/pkg/logger"
	"msgdrop/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	eff, err := config.LoadEffective(cfgPath)
	if err != nil {
		logger.Init("info")
		shutdown.Abort("failed to load config", err, "", 0)
	}

	// flags win over env/config when explicitly set
	if setFlags["addr"] {
		eff.Addr = addrVal
	}
	if setFlags["db"] || eff.DBPath == "" {
		eff.DBPath = dbVal
	}

	logger.Init(eff.Config.Logging.Level)

	a, err := app.New(*eff, version)
	if err != nil {
		shutdown.Abort("failed to initialize", err, eff.DBPath, 0)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, eff.DBPath, 0)
	}
	logger.Info("shutdown_complete")
}
