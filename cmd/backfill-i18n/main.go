// Command backfill-i18n moves legacy product names and descriptions into the
// per-locale maps, or clears locale entries that duplicate the base text.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/adapters/repository/mongodb"
	"github.com/hasakeplay/cms-backend/internal/config"
	"github.com/hasakeplay/cms-backend/internal/services/product"
	"github.com/sirupsen/logrus"
)

func main() {
	var dryRun bool
	var mode string
	flag.BoolVar(&dryRun, "dry", false, "report changes without writing them")
	flag.StringVar(&mode, "mode", string(product.BackfillFill), "fill | cleanup")
	flag.Parse()

	m := product.BackfillMode(mode)
	if m != product.BackfillFill && m != product.BackfillCleanup {
		fmt.Fprintf(os.Stderr, "unknown mode %q (want fill or cleanup)\n", mode)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongodb.Disconnect(context.Background())

	svc := product.NewService(repository.NewProductNodeRepository(client.Database(cfg.MongoDatabase)))
	report, err := svc.BackfillLocales(ctx, m, dryRun)
	if err != nil {
		logrus.WithError(err).Error("Backfill failed")
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}
