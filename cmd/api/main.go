package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/wagerengine/internal/api"
	"github.com/fastprodman/wagerengine/internal/infra/logging"
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/metrics"
	"github.com/fastprodman/wagerengine/internal/outcome"
	blackjackpg "github.com/fastprodman/wagerengine/internal/repos/blackjack/postgres"
	coinflippg "github.com/fastprodman/wagerengine/internal/repos/coinflip/postgres"
	historypg "github.com/fastprodman/wagerengine/internal/repos/history/postgres"
	jackpotpg "github.com/fastprodman/wagerengine/internal/repos/jackpot/postgres"
	ledgerpg "github.com/fastprodman/wagerengine/internal/repos/ledger/postgres"
	lotterypg "github.com/fastprodman/wagerengine/internal/repos/lottery/postgres"
	"github.com/fastprodman/wagerengine/internal/services/blackjack"
	"github.com/fastprodman/wagerengine/internal/services/coinflip"
	"github.com/fastprodman/wagerengine/internal/services/jackpot"
	"github.com/fastprodman/wagerengine/internal/services/lottery"
	"github.com/fastprodman/wagerengine/internal/services/slots"
	"github.com/fastprodman/wagerengine/internal/services/stats"
	"github.com/fastprodman/wagerengine/internal/services/wager"
	"github.com/fastprodman/wagerengine/pkg/envconf"
	"github.com/fastprodman/wagerengine/pkg/shutdownqueue"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		slog.Info("Close database")

		return db.Close()
	})

	services, err := wire(ctx, db, cfg)
	if err != nil {
		return err
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, services)

	shutdownqueue.Add("http", func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr

			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

// wire builds repositories and services and prepares the shared pools.
func wire(ctx context.Context, db *sql.DB, cfg *apiConfig) (api.Services, error) {
	games := cfg.Games
	runner := pgutils.NewRunner(db, cfg.Postgres.TxMaxAttempts)

	src, err := outcome.NewCryptoSource()
	if err != nil {
		return api.Services{}, fmt.Errorf("seed rng: %w", err)
	}

	paytable := slots.DefaultPaytable()
	if games.Slots.PaytablePath != "" {
		paytable, err = slots.LoadPaytable(games.Slots.PaytablePath)
		if err != nil {
			return api.Services{}, fmt.Errorf("load paytable: %w", err)
		}
	}

	hist := historypg.New(db)
	guard := wager.NewGuard(ledgerpg.New(db), games.Limits)

	jp := jackpot.New(jackpotpg.New(db))

	err = jp.Init(ctx, games.Slots.JackpotSeed, games.Slots.ContributionRate)
	if err != nil {
		return api.Services{}, fmt.Errorf("init jackpot: %w", err)
	}

	pool, err := jp.Snapshot(ctx)
	if err != nil {
		return api.Services{}, err
	}

	metrics.SetJackpotPool(pool.CurrentPool)

	sl, err := slots.New(runner, guard, jp, hist, src, paytable)
	if err != nil {
		return api.Services{}, fmt.Errorf("init slots: %w", err)
	}

	lot, err := lottery.New(runner, guard, lotterypg.New(db), hist, src, games.Lottery)
	if err != nil {
		return api.Services{}, fmt.Errorf("init lottery: %w", err)
	}

	draw, err := lot.EnsureOpenDraw(ctx)
	if err != nil {
		return api.Services{}, fmt.Errorf("open lottery draw: %w", err)
	}

	slog.Info("lottery draw open", "draw_id", draw.ID, "draw_at", draw.DrawAt, "pool", draw.PrizePool)

	rules := blackjack.Rules{
		DealerHitsSoft17: games.Blackjack.DealerHitsSoft17,
		NaturalPayout:    games.Blackjack.NaturalPayout,
	}

	return api.Services{
		Guard:     guard,
		Blackjack: blackjack.New(runner, guard, blackjackpg.New(db), hist, src, games.Blackjack.Decks, rules),
		Slots:     sl,
		Coinflip:  coinflip.New(runner, guard, coinflippg.New(db), hist, src, games.Coinflip.TTL, games.Coinflip.RakeRate),
		Lottery:   lot,
		Stats:     stats.New(guard, hist, jp, lot),
	}, nil
}
