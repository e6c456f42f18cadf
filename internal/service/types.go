package service

import (
	"context"

	"github.com/yourorg/epic-mining-calc/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	MarketDataProvider interface {
		Prices(ctx context.Context, currency string) (model.MarketPrices, error)
	}
	BlockchainDataProvider interface {
		LatestBlock(ctx context.Context) (model.BlockchainSnapshot, error)
	}
)
