package main

import (
	"context"
	"os"
	"time"

	"catalog-migrator/cmd/catalog-migrator/commands"
	"catalog-migrator/internal/components/telemetry"
	"catalog-migrator/lib/serviceutil"
)

func main() {
	telemetry.InitSlog(false)

	ctx := serviceutil.SignalContext(context.Background())
	providers, err := telemetry.SetupFromEnv(ctx, "catalog-migrator")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}

	code := commands.ExecuteContext(ctx)

	providers.Close(5 * time.Second)
	os.Exit(code)
}
