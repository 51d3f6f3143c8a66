package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"prizmora/controller"
	"prizmora/dao/store"
	"prizmora/pkg/cdn"
	"prizmora/pkg/coins"
	"prizmora/pkg/fusion"
	"prizmora/pkg/generator"
	"prizmora/pkg/ipfs"
	"prizmora/pkg/logger"
	"prizmora/pkg/metrics"
	"prizmora/pkg/sse"
	"prizmora/pkg/zora"
	"prizmora/settings"
)

func runServe(parent context.Context, configPath string) error {
	conf, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	lg, err := logger.Init(conf.Log.Level, conf.Mode == settings.ModeDev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync() // nolint: errcheck

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	httpClient := &http.Client{Timeout: conf.RequestTimeout}

	providers, err := buildProviders(ctx, conf, httpClient)
	if err != nil {
		return err
	}
	primary, ok := providers[conf.Generation.Primary]
	if !ok {
		return fmt.Errorf("unknown primary provider %q", conf.Generation.Primary)
	}
	fallback := providers[conf.Generation.Fallback]

	mirror := cdn.NewCloudinary(cdn.Config{
		CloudName: conf.Cloudinary.CloudName,
		APIKey:    conf.Cloudinary.APIKey,
		APISecret: conf.Cloudinary.APISecret,
		Folder:    conf.Cloudinary.Folder,
		BaseURL:   conf.Cloudinary.BaseURL,
	}, httpClient)
	if !mirror.Configured() {
		zap.L().Warn("cloudinary not configured, mirror disabled")
	}

	pinner, err := buildPinner(conf)
	if err != nil {
		return err
	}

	hub := sse.NewHub()
	go hub.Run(ctx)

	h := &controller.Handler{
		Fusion: fusion.New(fusion.Options{
			Primary:      primary,
			Fallback:     fallback,
			Mirror:       mirror,
			Mock:         conf.MockMode(),
			MockImageURL: conf.Generation.MockImageURL,
			Timeout:      conf.RequestTimeout,
			Metrics:      m,
		}),
		Mirror:  mirror,
		Pinner:  pinner,
		Gateway: conf.Pinata.Gateway,
		Coins:   buildCoins(ctx, conf, httpClient, m),
		Minter:  buildMinter(ctx, conf, pinner, m),
		Hub:     hub,
		DevMode: conf.Mode == settings.ModeDev,
	}

	r := controller.SetupRouter(h, controller.RouterConfig{
		Release:      conf.Mode == settings.ModeRelease,
		AllowOrigins: conf.AllowOrigins,
		Metrics:      m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.String("addr", srv.Addr), zap.String("mode", conf.Mode))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
		return err
	}
	return nil
}

func buildProviders(ctx context.Context, conf *settings.AppConfig, httpClient *http.Client) (map[string]generator.Provider, error) {
	gemini, err := generator.NewGemini(ctx, conf.Generation.GeminiAPIKey, conf.Generation.GeminiModel, httpClient)
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	return map[string]generator.Provider{
		generator.NameArk:    generator.NewArk(conf.Generation.ArkAPIKey, conf.Generation.ArkModel, conf.Generation.ArkSize),
		generator.NameGemini: gemini,
	}, nil
}

// buildPinner 配置了 Pinata JWT 时固定到 Pinata，否则使用进程内 CAS
func buildPinner(conf *settings.AppConfig) (ipfs.Pinner, error) {
	if conf.Pinata.JWT != "" {
		return ipfs.NewPinata(conf.Pinata.JWT, conf.Pinata.APIURL, nil), nil
	}
	zap.L().Warn("pinata jwt not set, pinning to in-memory store")
	return ipfs.NewMemoryCAS(conf.Pinata.CacheSize)
}

func buildCoins(ctx context.Context, conf *settings.AppConfig, httpClient *http.Client, m *metrics.Metrics) *coins.Adapter {
	opts := []coins.Option{coins.WithMetrics(m)}
	if conf.Redis.Addr != "" {
		client, err := store.Init(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			zap.L().Warn("redis unavailable, coin cache disabled", zap.String("addr", conf.Redis.Addr), zap.Error(err))
		} else {
			opts = append(opts, coins.WithCache(store.NewCoinCache(client, conf.Redis.CoinTTL)))
		}
	}
	return coins.NewAdapter(coins.NewZoraClient(conf.Zora.APIURL, conf.Zora.APIKey, httpClient), opts...)
}

// buildMinter 钱包与网络任一不可用时仍返回 Minter，由其前置检查给出对应错误
func buildMinter(ctx context.Context, conf *settings.AppConfig, pinner ipfs.Pinner, m *metrics.Metrics) *zora.Minter {
	chainID := big.NewInt(conf.Zora.ChainID)
	opts := zora.Options{
		Pinner:           pinner,
		ChainID:          chainID,
		PlatformReferrer: common.HexToAddress(conf.Zora.PlatformReferrer),
		Timeout:          conf.RequestTimeout,
		Metrics:          m,
	}

	walletChain := chainID
	if conf.Zora.RPCURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, networkID, err := zora.Dial(dialCtx, conf.Zora.RPCURL)
		cancel()
		if err != nil {
			zap.L().Warn("rpc unavailable, minting disabled", zap.Error(err))
		} else {
			opts.Factory = zora.NewEthFactory(common.HexToAddress(conf.Zora.FactoryAddress), client)
			opts.Receipts = client
			walletChain = networkID
		}
	}

	if conf.Zora.PrivateKey != "" {
		w, err := zora.NewKeyWallet(conf.Zora.PrivateKey, walletChain)
		if err != nil {
			zap.L().Error("invalid wallet key, minting disabled", zap.Error(err))
		} else {
			opts.Wallet = w
			zap.L().Info("minting wallet loaded", zap.String("address", w.Address().Hex()), zap.String("chain", walletChain.String()))
		}
	}
	return zora.NewMinter(opts)
}
