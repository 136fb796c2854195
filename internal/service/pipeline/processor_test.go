package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/listingguard/risk-engine/internal/domain/listing"
	"github.com/listingguard/risk-engine/internal/metrics"
	"github.com/listingguard/risk-engine/internal/service/classification"
	"github.com/listingguard/risk-engine/internal/service/extraction"
	"github.com/listingguard/risk-engine/internal/service/marketstats"
	"github.com/listingguard/risk-engine/internal/service/scoring"
)

func newTestProcessor(t *testing.T, snap *marketstats.Snapshot, cfg Config) *Processor {
	t.Helper()
	store := marketstats.NewStoreWith(snap, 1)
	return NewProcessor(
		extraction.NewExtractor(),
		classification.NewClassifier(),
		scoring.NewRiskScorer(store, scoring.DefaultConfig()),
		cfg,
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop(),
	)
}

func marketSnapshot() *marketstats.Snapshot {
	return &marketstats.Snapshot{Entries: map[marketstats.BucketKey]marketstats.StatsEntry{
		{Category: "gaming", Condition: "like_new", Component: "cpu:i7"}:      {Mean: 800, StdDev: 150, SampleCount: 30},
		{Category: "gaming", Condition: "like_new", Component: "gpu:rtx3060"}: {Mean: 800, StdDev: 150, SampleCount: 30},
		{Category: "gaming", Condition: "like_new", Component: "ram:16"}:      {Mean: 800, StdDev: 150, SampleCount: 30},
		{Category: "gaming", Condition: "like_new", Component: "category"}:    {Mean: 800, StdDev: 150, SampleCount: 90},
		{Category: "all", Condition: "any", Component: "category"}:            {Mean: 450, StdDev: 250, SampleCount: 500},
	}}
}

func decodeOutput(t *testing.T, out []byte) []listing.ScoredListing {
	t.Helper()
	var scored []listing.ScoredListing
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		var s listing.ScoredListing
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		scored = append(scored, s)
	}
	return scored
}

func TestRun_EndToEnd(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"l-1","title":"Portátil gaming Intel Core i7 16GB RAM RTX 3060","description":"como nuevo, 512GB SSD","price":300}`,
		`not json at all`,
		`{"id":"","title":"sin id","price":100}`,
		`{"id":"l-2","title":"Portátil viejo","description":"para piezas, no enciende","price":40}`,
		``,
	}, "\n")

	p := newTestProcessor(t, marketSnapshot(), DefaultConfig())

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Read)
	assert.Equal(t, 2, stats.Scored)
	assert.Equal(t, 2, stats.Skipped)

	scored := decodeOutput(t, out.Bytes())
	require.Len(t, scored, 2)

	byID := map[string]listing.ScoredListing{}
	for _, s := range scored {
		byID[s.ID] = s
	}

	gaming, ok := byID["l-1"]
	require.True(t, ok)
	assert.Equal(t, listing.CategoryGaming, gaming.Classification.Category)
	assert.Equal(t, listing.ConditionLikeNew, gaming.Classification.Condition)
	require.NotNil(t, gaming.ExtractedSpec.RAMGB)
	assert.Equal(t, 16, *gaming.ExtractedSpec.RAMGB)
	assert.GreaterOrEqual(t, gaming.RiskAssessment.StatisticalPoints, 60)
	assert.GreaterOrEqual(t, gaming.RiskAssessment.TotalScore, 60)
	require.NotNil(t, gaming.RiskAssessment.EstimatedValue)
	assert.Equal(t, "EUR", gaming.RiskAssessment.EstimatedValue.Currency())

	parts, ok := byID["l-2"]
	require.True(t, ok)
	assert.Equal(t, listing.ConditionForParts, parts.Classification.Condition)
}

func TestRun_SymbolicPriceCorrected(t *testing.T) {
	input := `{"id":"l-3","title":"MacBook Air M2","description":"Precio: 450€. Entrega en mano, perfecto estado de bateria","price":1}` + "\n"

	p := newTestProcessor(t, marketSnapshot(), DefaultConfig())

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Corrected)

	scored := decodeOutput(t, out.Bytes())
	require.Len(t, scored, 1)
	assert.True(t, scored[0].PriceCorrected)
	require.NotNil(t, scored[0].Price)
	assert.Equal(t, "450", scored[0].Price.String())
}

func TestRun_SkipsUnsupportedCurrency(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"l-4","title":"Portátil i5","description":"buen estado","price":400,"currency":"BTC"}`,
		`{"id":"l-5","title":"Portátil i5","description":"buen estado","price":400,"currency":"usd"}`,
	}, "\n")

	p := newTestProcessor(t, marketSnapshot(), DefaultConfig())

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Scored)

	scored := decodeOutput(t, out.Bytes())
	require.Len(t, scored, 1)
	assert.Equal(t, "l-5", scored[0].ID)
}

func TestRun_BadRecordNeverAbortsBatch(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, `{"id":"ok-`+string(rune('a'+i%26))+`","title":"Portátil i5 8GB","description":"usado","price":350}`)
		lines = append(lines, `{"broken`)
	}
	input := strings.Join(lines, "\n")

	p := newTestProcessor(t, marketSnapshot(), Config{Workers: 4, FlagThreshold: 60})

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Scored)
	assert.Equal(t, 50, stats.Skipped)
	assert.Len(t, decodeOutput(t, out.Bytes()), 50)
}

func TestRun_ContextCancellationStopsReading(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := `{"id":"l-9","title":"Portátil","price":200}` + "\n"
	p := newTestProcessor(t, marketSnapshot(), DefaultConfig())

	var out bytes.Buffer
	_, err := p.Run(ctx, strings.NewReader(input), &out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScore_IsDeterministicForFixedSnapshot(t *testing.T) {
	p := newTestProcessor(t, marketSnapshot(), DefaultConfig())

	newRec := func() *listing.ListingRecord {
		price := decimal.NewFromInt(300)
		return &listing.ListingRecord{
			ID:          "l-10",
			Title:       "Portátil gaming i7 16GB RTX 3060",
			Description: "como nuevo",
			Price:       &price,
		}
	}

	first := p.Score(newRec())
	second := p.Score(newRec())

	assert.Equal(t, first.RiskAssessment.TotalScore, second.RiskAssessment.TotalScore)
	assert.Equal(t, first.RiskAssessment.CompositeZ, second.RiskAssessment.CompositeZ)
	assert.Equal(t, first.ExtractedSpec, second.ExtractedSpec)
	assert.Equal(t, first.Classification, second.Classification)

	require.GreaterOrEqual(t, len(first.RiskAssessment.Reasons), 1)
	assert.Equal(t, first.RiskAssessment.Reasons, second.RiskAssessment.Reasons)
}

func TestRun_FlagThreshold(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"cheap","title":"Portátil gaming i7 16GB RTX 3060","description":"como nuevo","price":300}`,
		`{"id":"fair","title":"Portátil gaming i7 16GB RTX 3060","description":"como nuevo, funciona todo perfecto sin detalles","price":780}`,
	}, "\n")

	p := newTestProcessor(t, marketSnapshot(), Config{Workers: 1, FlagThreshold: 50})

	var out bytes.Buffer
	stats, err := p.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scored)
	assert.Equal(t, 1, stats.Flagged)
}
