// Command check is a connectivity and pricing dry run: it fetches both venue
// books, derives the maker quote targets from the live reference book and
// prints them without placing any order. Run it before the bot to confirm
// config, credentials and fee parameters produce sane quotes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"maker-arb-bot/internal/config"
	"maker-arb-bot/internal/logging"
	"maker-arb-bot/internal/strategy"
	"maker-arb-bot/internal/venue/binance"
	"maker-arb-bot/internal/venue/lighter"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	checkBalances := flag.Bool("balances", false, "also query venue balances (requires credentials)")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var quotingSigner *binance.Signer
	apiKey := strings.TrimSpace(os.Getenv("BINANCE_API_KEY"))
	apiSecret := strings.TrimSpace(os.Getenv("BINANCE_API_SECRET"))
	if apiKey != "" && apiSecret != "" {
		quotingSigner, err = binance.NewSigner(apiKey, apiSecret)
		if err != nil {
			fatal(err)
		}
	}
	quoting := binance.New(
		cfg.Quoting.BaseURL,
		cfg.Quoting.WSURL,
		cfg.Quoting.Timeout,
		cfg.Quoting.ReconnectDelay,
		cfg.Quoting.PingInterval,
		quotingSigner,
		log,
	)
	if err := quoting.Connect(ctx); err != nil {
		fatal(fmt.Errorf("quoting venue: %w", err))
	}

	var referenceSigner *lighter.Signer
	if key := strings.TrimSpace(os.Getenv("LIGHTER_PRIVATE_KEY")); key != "" {
		referenceSigner, err = lighter.NewSigner(key, uint64(cfg.Reference.ChainID))
		if err != nil {
			fatal(err)
		}
	}
	reference := lighter.New(cfg.Reference.BaseURL, cfg.Reference.Timeout, referenceSigner, log)
	if err := reference.Connect(ctx); err != nil {
		fatal(fmt.Errorf("reference venue: %w", err))
	}

	refBook, err := reference.OrderBook(ctx, cfg.Strategy.ReferenceSymbol)
	if err != nil {
		fatal(fmt.Errorf("reference book: %w", err))
	}
	quoteBook, err := quoting.OrderBook(ctx, cfg.Strategy.QuotingSymbol)
	if err != nil {
		fatal(fmt.Errorf("quoting book: %w", err))
	}
	fmt.Printf("reference %s: bid=%.6f ask=%.6f\n", cfg.Strategy.ReferenceSymbol, refBook.BestBid, refBook.BestAsk)
	fmt.Printf("quoting   %s: bid=%.6f ask=%.6f\n", cfg.Strategy.QuotingSymbol, quoteBook.BestBid, quoteBook.BestAsk)

	if refBook.Empty() {
		fatal(errors.New("reference book is empty, no targets to derive"))
	}
	target, err := strategy.MakerQuotes(refBook.BestBid, refBook.BestAsk, strategy.Params{
		MakerFee:  cfg.Strategy.MakerFee,
		TakerFee:  cfg.Strategy.TakerFee,
		MinProfit: cfg.Strategy.MinProfit,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("targets: bid=%.6f ask=%.6f spread=%.6f\n", target.Bid, target.Ask, target.Spread())
	fmt.Printf("order: quantity=%.6f bid_notional=%.2f ask_notional=%.2f\n",
		cfg.Strategy.OrderQuantity,
		cfg.Strategy.OrderQuantity*target.Bid,
		cfg.Strategy.OrderQuantity*target.Ask,
	)
	if !quoteBook.Empty() {
		if target.Bid >= quoteBook.BestAsk {
			fmt.Println("warning: bid target crosses the quoting book and would be rejected as post-only")
		}
		if target.Ask <= quoteBook.BestBid {
			fmt.Println("warning: ask target crosses the quoting book and would be rejected as post-only")
		}
	}

	if *checkBalances {
		if quotingSigner == nil {
			fatal(errors.New("balances check requires BINANCE_API_KEY and BINANCE_API_SECRET"))
		}
		if referenceSigner == nil {
			fatal(errors.New("balances check requires LIGHTER_PRIVATE_KEY"))
		}
		quoteAsset := quoteAssetOf(cfg.Strategy.QuotingSymbol)
		free, err := quoting.Balance(ctx, quoteAsset)
		if err != nil {
			fatal(fmt.Errorf("quoting balance: %w", err))
		}
		fmt.Printf("quoting balance: %.6f %s\n", free, quoteAsset)
		collateral, err := reference.Balance(ctx, "USDC")
		if err != nil {
			fatal(fmt.Errorf("reference balance: %w", err))
		}
		fmt.Printf("reference collateral: %.6f USDC\n", collateral)
	}
}

func quoteAssetOf(symbol string) string {
	for _, quote := range []string{"USDT", "USDC", "BUSD"} {
		if strings.HasSuffix(symbol, quote) {
			return quote
		}
	}
	return "USDT"
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
