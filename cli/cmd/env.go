package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/Jharmony/StreamVault/adapter"
	"github.com/Jharmony/StreamVault/adapter/redis"
	"github.com/Jharmony/StreamVault/adapter/webhook"
	"github.com/Jharmony/StreamVault/cli/config"
	"github.com/Jharmony/StreamVault/confirm"
	"github.com/Jharmony/StreamVault/ledger"
	"github.com/Jharmony/StreamVault/localcache"
	"github.com/Jharmony/StreamVault/log"
	"github.com/Jharmony/StreamVault/metrics"
	"github.com/Jharmony/StreamVault/mint"
	"github.com/Jharmony/StreamVault/policy"
	"github.com/Jharmony/StreamVault/profile"
	"github.com/Jharmony/StreamVault/publish"
	"github.com/Jharmony/StreamVault/transfer"
	"github.com/Jharmony/StreamVault/types"
)

// timeNow is overridable for tests.
var timeNow = time.Now

// env is everything one command invocation needs, built from config.
type env struct {
	cfg    *config.Config
	wallet types.Wallet
	logger *log.Logger

	collector *metrics.Collector
	ledger    *ledger.Ledger
	cache     *localcache.Store
	resolver  *profile.Resolver
	notifier  adapter.Adapter
	publisher *publish.Publisher

	// onState receives publisher transitions; set per command.
	onState func(types.PublishState)
}

// loadConfig resolves the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Resolve(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("wallet-type"); v != "" {
		cfg.Wallet.Type = v
	}
	if v := c.String("wallet-address"); v != "" {
		cfg.Wallet.Address = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// openEnv loads config and wires an env. Failures exit with exitConfig.
func openEnv(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	e, err := newEnv(c.Context, cfg, os.Stderr)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfig)
	}
	return e, nil
}

// newEnv wires every collaborator from cfg. Logs go to logOut.
func newEnv(ctx context.Context, cfg *config.Config, logOut io.Writer) (*env, error) {
	wallet, err := cfg.WalletValue()
	if err != nil {
		return nil, err
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := log.NewLoggerWithLevel(log.Context{
		Component:  "cli",
		Wallet:     wallet.Address,
		WalletType: string(wallet.Type),
	}, logOut, level)

	e := &env{cfg: cfg, wallet: wallet, logger: logger}

	e.ledger, err = openLedger(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}
	e.collector = metrics.NewCollector(string(wallet.Type), e.ledger.Backend())
	e.restoreMetrics(ctx)

	e.cache, err = localcache.Open(ctx, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	if err := e.wire(cfg); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) wire(cfg *config.Config) error {
	var store profile.Store
	if cfg.Profile.URL != "" {
		s, err := profile.NewHTTPStore(profile.HTTPConfig{
			URL:     cfg.Profile.URL,
			Timeout: cfg.Profile.Timeout.Duration,
			Headers: cfg.Profile.Headers,
		}, e.logger.Named("profile"))
		if err != nil {
			return fmt.Errorf("profile store: %w", err)
		}
		store = s
	}
	resolver, err := profile.NewResolver(store, e.cache, cfg.Profile.CacheSize, e.logger.Named("profile"))
	if err != nil {
		return fmt.Errorf("profile resolver: %w", err)
	}
	e.resolver = resolver

	// A missing signer leaves both upload paths wired; uploads then fail
	// with a wallet error instead of the whole command failing to start.
	var signer transfer.Signer
	var payers []transfer.PaymentWallet
	if cfg.Signer.URL != "" && e.wallet.Connected() {
		rs, err := transfer.NewRemoteSigner(transfer.RemoteSignerConfig{
			URL:     cfg.Signer.URL,
			Wallet:  e.wallet,
			Timeout: cfg.Signer.Timeout.Duration,
			Headers: cfg.Signer.Headers,
		})
		if err != nil {
			return fmt.Errorf("signer: %w", err)
		}
		signer = rs
		payers = append(payers, rs)
	}

	gateways := cfg.GatewayValue()
	networkURL := cfg.Network.URL
	if networkURL == "" {
		networkURL = gateways.Primary
	}

	pcfg := publish.Config{
		Validator: policy.NewEngine(policy.NewHTTPStreamFetcher(nil), e.logger.Named("policy")),
		Direct: transfer.NewDirectUploader(signer,
			transfer.NewHTTPNetwork(networkURL, cfg.Network.Timeout.Duration), e.logger.Named("transfer")),
		Profiles:  e.resolver,
		Cache:     e.cache,
		Ledger:    e.ledger,
		Gateways:  gateways,
		Collector: e.collector,
		Logger:    e.logger.Named("publish"),
		OnStateChange: func(s types.PublishState) {
			if e.onState != nil {
				e.onState(s)
			}
		},
	}

	if cfg.Bulk.URL != "" {
		pcfg.Paid = transfer.NewPaidUploader(
			transfer.NewBulkClient(cfg.Bulk.URL, cfg.Bulk.Timeout.Duration),
			payers,
			transfer.WithPaidLogger(e.logger.Named("transfer")),
			transfer.WithProgress(e.logProgress),
		)
	}
	if !cfg.Confirm.Disabled {
		pcfg.Confirmer = confirm.NewPoller(
			confirm.NewHTTPGateway(gateways.Primary, nil),
			confirm.NewHTTPGateway(gateways.Secondary, nil),
			confirm.Config{
				Interval: cfg.Confirm.Interval.Duration,
				Timeout:  cfg.Confirm.Timeout.Duration,
			},
			e.logger.Named("confirm"),
		)
	}
	if cfg.Registry.URL != "" {
		pcfg.Minter = mint.NewMinter(
			mint.NewHTTPRegistry(cfg.Registry.URL, cfg.Registry.Timeout.Duration, cfg.Registry.Headers),
			e.logger.Named("mint"),
		)
	}

	notifier, err := newNotifier(cfg.Adapter)
	if err != nil {
		return fmt.Errorf("adapter: %w", err)
	}
	if notifier != nil {
		e.notifier = notifier
		pcfg.Notifier = notifier
	}

	e.publisher, err = publish.NewPublisher(pcfg)
	return err
}

func openLedger(ctx context.Context, cfg config.LedgerConfig) (*ledger.Ledger, error) {
	switch cfg.Backend {
	case ledger.BackendS3:
		bucket, prefix := ledger.ParseS3Path(cfg.Path)
		l, err := ledger.NewS3(ctx, ledger.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 ledger: %w", err)
		}
		return l, nil
	case ledger.BackendMemory:
		return ledger.NewMemory()
	default:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
		return ledger.NewFS(cfg.Path)
	}
}

// newNotifier returns nil when no adapter is configured.
func newNotifier(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Secret:  cfg.Secret,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		retries := redis.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return redis.New(redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, nil
	}
}

// restoreMetrics seeds the collector with the wallet's last snapshot so
// stats accumulate across invocations.
func (e *env) restoreMetrics(ctx context.Context) {
	if e.wallet.Address == "" {
		return
	}
	rec, err := e.ledger.LatestMetrics(ctx, e.wallet.Address)
	switch {
	case err == nil:
		e.collector.Restore(rec.Snapshot)
	case errors.Is(err, ledger.ErrNoMetricsFound):
	default:
		e.logger.Warn("failed to read previous metrics", map[string]any{"error": err.Error()})
	}
}

// saveMetrics appends the current snapshot to the ledger.
func (e *env) saveMetrics(ctx context.Context) {
	if e.wallet.Address == "" {
		return
	}
	if err := e.ledger.WriteMetrics(context.WithoutCancel(ctx), e.wallet.Address, e.collector.Snapshot(), timeNow()); err != nil {
		e.logger.Warn("failed to write metrics", map[string]any{"error": err.Error()})
	}
}

func (e *env) logProgress(ev transfer.ProgressEvent) {
	switch ev.Kind {
	case transfer.ProgressStart, transfer.ProgressComplete:
		e.logger.Debug("paid upload", map[string]any{"phase": string(ev.Kind), "bytes": ev.TotalBytes})
	case transfer.ProgressError:
		e.logger.Debug("paid upload", map[string]any{"phase": string(ev.Kind), "error": ev.Err})
	}
}

// Close releases the cache and the notifier.
func (e *env) Close() error {
	var errs error
	if e.notifier != nil {
		errs = multierr.Append(errs, e.notifier.Close())
	}
	if e.cache != nil {
		errs = multierr.Append(errs, e.cache.Close())
	}
	return errs
}
