// Command relayctl moves a local attendance document through a relay server.
//
//	relayctl push            stores the document and prints the six-digit code
//	relayctl pull -code N    replaces the local document with the one under N
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/relay"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/logger"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg, "relayctl")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	dir := fs.String("dir", cfg.Snapshot.Dir, "directory holding the document slot")
	slot := fs.String("slot", cfg.Snapshot.Slot, "document slot name")
	baseURL := fs.String("relay", cfg.Relay.BaseURL, "relay base URL")
	timeout := fs.Duration("timeout", cfg.Relay.ClientTimeout, "relay request timeout")
	code := fs.String("code", "", "six-digit transfer code (pull)")
	_ = fs.Parse(os.Args[2:])

	if *baseURL == "" {
		log.Fatal("relay base URL is required")
	}

	files, err := storage.NewLocalStorage(*dir)
	if err != nil {
		logr.Fatal("failed to open document directory", zap.Error(err))
	}
	store := service.NewStore(repository.NewFileSnapshotRepository(files), service.StoreConfig{
		Slot:             *slot,
		ProKey:           cfg.License.ProKey,
		EvalKey:          cfg.License.EvalKey,
		EvalPeriod:       cfg.License.EvalPeriod,
		FreeStudentLimit: cfg.License.FreeStudentLimit,
	}, logr.Named("store"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := store.Load(ctx); err != nil {
		logr.Fatal("failed to load document", zap.Error(err))
	}
	transfer := service.NewTransferService(store, relay.NewClient(*baseURL, *timeout, logr.Named("relay-client")), logr)

	switch cmd {
	case "push":
		issued, err := transfer.Issue(ctx)
		if err != nil {
			logr.Fatal("push failed", zap.Error(err))
		}
		fmt.Printf("%s (expires %s)\n", issued.Code, issued.ExpiresAt.Local().Format(time.RFC3339))
	case "pull":
		imported, err := transfer.ImportCode(ctx, *code)
		if err != nil {
			logr.Fatal("pull failed", zap.Error(err))
		}
		fmt.Printf("imported %d students, %d subjects, %d records\n", imported.Students, imported.Subjects, imported.AttendanceRecords)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: relayctl push|pull [-code N] [-dir DIR] [-slot NAME] [-relay URL] [-timeout D]")
	os.Exit(2)
}
