package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/njord/pkg/codec"
	"github.com/ssargent/njord/pkg/config"
	"github.com/ssargent/njord/pkg/idgen"
	"github.com/ssargent/njord/pkg/region"
	"github.com/ssargent/njord/pkg/service"
	"github.com/ssargent/njord/pkg/storage"
	"github.com/ssargent/njord/pkg/store"
)

// app bundles the wired storage context handed to each command.
type app struct {
	Tracker  *service.Tracker
	Recovery *store.RecoveryResult
	closers  []func() error
}

// Close releases storage resources in reverse acquisition order.
func (a *app) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openApp opens the identifier sequence and the selected product store
// under dataDir and wires the tracking service on top of them.
func openApp(dataDir, backend string) (*app, error) {
	a := &app{}

	alloc, err := region.NewAllocator(filepath.Join(dataDir, "regions"))
	if err != nil {
		return nil, fmt.Errorf("open storage space: %w", err)
	}
	a.closers = append(a.closers, alloc.Close)

	counterRegion, err := alloc.Region(region.RegionIDCounter)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open counter region: %w", err)
	}
	sequence, err := idgen.Open(counterRegion)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open identifier sequence: %w", err)
	}

	var productStore store.ProductStore
	switch backend {
	case config.BackendPebble:
		ps, err := storage.OpenPebbleStore(filepath.Join(dataDir, "pebble"))
		if err != nil {
			a.Close()
			return nil, err
		}
		productStore = ps
	case config.BackendLog, "":
		logRegion, err := alloc.Region(region.RegionProductLog)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open product log region: %w", err)
		}
		ls, recovery, err := store.OpenLogStore(logRegion)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Recovery = recovery
		productStore = ls
	default:
		a.Close()
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	a.closers = append(a.closers, productStore.Close)

	a.Tracker = service.NewTracker(service.TrackerConfig{
		Sequence: sequence,
		Store:    productStore,
	})
	return a, nil
}

// openFromFlags opens the app using the persistent root flags.
func openFromFlags(cmd *cobra.Command) (*app, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	backend, _ := cmd.Flags().GetString("backend")

	a, err := openApp(dataDir, backend)
	if err != nil {
		return nil, err
	}
	if a.Recovery != nil && a.Recovery.TruncatedBytes > 0 {
		cmd.Printf("Recovered from torn write: %d bytes truncated\n", a.Recovery.TruncatedBytes)
	}
	return a, nil
}

// optionalFlag returns nil for flags left empty, so absent optional
// fields stay absent instead of becoming empty strings.
func optionalFlag(cmd *cobra.Command, name string) *string {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil
	}
	return &value
}

// printProduct renders a product as indented JSON.
func printProduct(cmd *cobra.Command, p *codec.Product) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}
