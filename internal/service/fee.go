package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// PriceFetcher looks up a provider price by id.
type PriceFetcher interface {
	RetrievePrice(ctx context.Context, id string) (*domain.Price, error)
}

// FeeResolver resolves the posting fee. Resolutions are cached per price
// reference for the life of the process, so changing the reference is the
// only way to pick up a new fee.
type FeeResolver struct {
	prices   PriceFetcher
	priceRef func() string
	cache    *lru.Cache[string, domain.PostingFeeConfig]
	group    singleflight.Group
	metrics  *metrics.Metrics
}

func NewFeeResolver(prices PriceFetcher, priceRef func() string, m *metrics.Metrics) *FeeResolver {
	cache, err := lru.New[string, domain.PostingFeeConfig](config.FeeCacheSize)
	if err != nil {
		panic(err)
	}
	if priceRef == nil {
		priceRef = func() string { return "" }
	}
	return &FeeResolver{prices: prices, priceRef: priceRef, cache: cache, metrics: m}
}

func (r *FeeResolver) Resolve(ctx context.Context) (domain.PostingFeeConfig, error) {
	ref := strings.TrimSpace(r.priceRef())
	if ref == "" {
		r.metrics.FeeResolved("default")
		return domain.PostingFeeConfig{
			Amount:   config.DefaultPostingFeeAmount,
			Currency: config.DefaultPostingFeeCurrency,
		}, nil
	}

	if fee, ok := r.cache.Get(ref); ok {
		r.metrics.FeeResolved("cache")
		return fee, nil
	}

	v, err, _ := r.group.Do(ref, func() (any, error) {
		if fee, ok := r.cache.Get(ref); ok {
			return fee, nil
		}
		fee, err := r.fetch(ctx, ref)
		if err != nil {
			return domain.PostingFeeConfig{}, err
		}
		r.cache.Add(ref, fee)
		slog.Info("posting fee resolved", "price_id", ref, "amount", fee.Amount, "currency", fee.Currency)
		return fee, nil
	})
	if err != nil {
		return domain.PostingFeeConfig{}, err
	}
	r.metrics.FeeResolved("price")
	return v.(domain.PostingFeeConfig), nil
}

func (r *FeeResolver) fetch(ctx context.Context, ref string) (domain.PostingFeeConfig, error) {
	price, err := r.prices.RetrievePrice(ctx, ref)
	if err != nil {
		return domain.PostingFeeConfig{}, fmt.Errorf("fetch posting fee price: %w", err)
	}
	if !price.Active {
		return domain.PostingFeeConfig{}, fmt.Errorf("%w: price %s is not active", domain.ErrConfiguration, ref)
	}
	if !price.OneTime {
		return domain.PostingFeeConfig{}, fmt.Errorf("%w: price %s must be one-time", domain.ErrConfiguration, ref)
	}
	if price.Currency != config.DefaultPostingFeeCurrency {
		return domain.PostingFeeConfig{}, fmt.Errorf("%w: price %s must be in %s, got %q",
			domain.ErrConfiguration, ref, config.DefaultPostingFeeCurrency, price.Currency)
	}
	if price.UnitAmount == nil {
		return domain.PostingFeeConfig{}, fmt.Errorf("%w: price %s has no unit amount", domain.ErrConfiguration, ref)
	}
	return domain.PostingFeeConfig{
		Amount:   *price.UnitAmount,
		Currency: price.Currency,
		PriceID:  ref,
	}, nil
}
