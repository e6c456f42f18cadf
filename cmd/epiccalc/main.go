// Command epiccalc prints a one-shot EPIC mining profitability estimate:
//
//	epiccalc "500 GH cuckoo 2%" --energy 0.1 --consumption 1000
//
// Live explorer and market data are used unless --height, --network-hashrate
// and --price override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/epic-mining-calc/internal/config"
	"github.com/yourorg/epic-mining-calc/internal/fetch"
	"github.com/yourorg/epic-mining-calc/internal/model"
	"github.com/yourorg/epic-mining-calc/internal/query"
	"github.com/yourorg/epic-mining-calc/internal/service"
	"github.com/yourorg/epic-mining-calc/internal/types"
)

type options struct {
	Hashrate    uint64  `long:"hashrate" description:"rig hashrate in H/s, used when the query has no number"`
	Algorithm   string  `long:"algorithm" description:"PoW algorithm when the query names none (cuckoo, progpow, randomx)"`
	PoolFee     float64 `long:"pool-fee" description:"pool fee percent when the query has no N% token"`
	Currency    string  `long:"currency" env:"DEFAULT_CURRENCY" description:"quote currency" default:"USD"`
	Consumption float64 `long:"consumption" description:"rig power draw in watts"`
	Energy      float64 `long:"energy" description:"electricity price per kWh"`
	Days        int     `long:"days" description:"income horizon in days" default:"1"`
	Name        string  `long:"name" description:"rig name"`

	Height          uint64  `long:"height" description:"use this block height instead of the explorer's"`
	NetworkHashrate float64 `long:"network-hashrate" description:"use this network hashrate (explorer units) for the rig's algorithm"`
	Price           float64 `long:"price" description:"use this coin price instead of the market's"`

	MarketDataURL string        `long:"market-data-url" env:"MARKET_DATA_URL" description:"market data API" default:"https://api.coingecko.com/api/v3"`
	ExplorerURL   string        `long:"explorer-url" env:"EXPLORER_URL" description:"block explorer API" default:"https://epic-radar.com/api"`
	Timeout       time.Duration `long:"timeout" env:"REQUEST_TIMEOUT" description:"upstream request timeout" default:"10s"`

	JSON bool `long:"json" description:"print the report as JSON"`

	Args struct {
		Query []string `positional-arg-name:"query" description:"rig description, e.g. \"500 GH cuckoo 2%\""`
	} `positional-args:"yes"`
}

func main() {
	level, err := logrus.ParseLevel(config.GetEnvOrDefault("LOG_LEVEL", "warn"))
	if err != nil {
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			return
		}
		fmt.Fprintln(os.Stderr, "epiccalc:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts options
	if _, err := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash).ParseArgs(args); err != nil {
		return err
	}

	text := strings.Join(opts.Args.Query, " ")
	req := service.Request{
		Query:     text,
		Hashrate:  opts.Hashrate,
		Algorithm: opts.Algorithm,
		PoolFee:   &opts.PoolFee,
		Currency:  opts.Currency,
		Energy:    opts.Energy,
		Days:      opts.Days,
		Name:      opts.Name,
	}
	if opts.Consumption != 0 {
		req.Consumption = &opts.Consumption
	}

	var (
		market service.MarketDataProvider   = fetch.NewMarketDataClient(opts.MarketDataURL, opts.Timeout, nil, nil)
		chain  service.BlockchainDataProvider = fetch.NewBlockchainClient(opts.ExplorerURL, opts.Timeout, nil, nil)
	)
	if opts.Price > 0 {
		market = fixedPrice{price: opts.Price}
	}
	if opts.Height > 0 || opts.NetworkHashrate > 0 {
		chain = chainOverride{
			live:      chain,
			height:    opts.Height,
			hashrate:  opts.NetworkHashrate,
			algorithm: rigAlgorithm(text, opts),
		}
	}

	rep, err := service.New(market, chain).Calculate(ctx, req)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	_, err = fmt.Fprintln(out, rep.Formatted())
	return err
}

// rigAlgorithm resolves the algorithm the way the service does, so a network
// hashrate override lands on the right entry
func rigAlgorithm(text string, opts options) types.Algorithm {
	if algo := query.NewParser(nil).Parse(text, opts.Hashrate).Algorithm; algo != "" {
		return algo
	}
	return types.Algorithm(strings.ToLower(opts.Algorithm))
}

// fixedPrice serves a user supplied price. There is no reference market
// offline, so the reference equals the native price.
type fixedPrice struct {
	price float64
}

func (p fixedPrice) Prices(_ context.Context, currency string) (model.MarketPrices, error) {
	return model.NewMarketPrices(currency, p.price, p.price)
}

// chainOverride patches the explorer snapshot with user supplied values. With
// both height and hashrate set the explorer is not called.
type chainOverride struct {
	live      service.BlockchainDataProvider
	height    uint64
	hashrate  float64
	algorithm types.Algorithm
}

func (c chainOverride) LatestBlock(ctx context.Context) (model.BlockchainSnapshot, error) {
	if c.height > 0 && c.hashrate > 0 {
		return model.NewBlockchainSnapshot(c.height, map[types.Algorithm]float64{c.algorithm: c.hashrate}, 0, time.Now())
	}

	snapshot, err := c.live.LatestBlock(ctx)
	if err != nil {
		return model.BlockchainSnapshot{}, err
	}
	if c.height > 0 {
		snapshot.Height = c.height
	}
	if c.hashrate > 0 {
		rates := make(map[types.Algorithm]float64, len(snapshot.NetworkHashrate)+1)
		for algo, h := range snapshot.NetworkHashrate {
			rates[algo] = h
		}
		rates[c.algorithm] = c.hashrate
		snapshot.NetworkHashrate = rates
	}
	return snapshot, nil
}
