package services

import (
	"context"
	"strings"

	"yard-sniper/comps"
	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/utils"
)

// Comparables estimates sold prices for a marketplace query.
type Comparables interface {
	Estimate(ctx context.Context, query string, maxSamples int) comps.Result
}

// AnalyzeOptions are the caller's buying inputs.
type AnalyzeOptions struct {
	PartType          string
	CradlePos         string
	Cost              float64
	Ship              float64
	BuyerPaysShipping bool
	MaxSamples        int
}

// Analysis is the scored outcome of one analyzer call. Lanes holds every
// evaluated variant; Best is the lane with the highest net profit.
type Analysis struct {
	Subject     string
	Decoded     models.VinInfo
	Lanes       []models.ProfitabilityProfile
	Best        models.ProfitabilityProfile
	HasBest     bool
	Diagnostics []models.Diagnostic
}

// Analyzer scores part pulls against sold comparables.
type Analyzer struct {
	comps    Comparables
	decoder  scraper.VINDecoder
	features map[string][]string
	logger   *utils.Logger
}

// NewAnalyzer creates an Analyzer. features maps an uppercase model to its
// option modules; nil uses DefaultPlatformFeatures.
func NewAnalyzer(c Comparables, decoder scraper.VINDecoder, features map[string][]string, logger *utils.Logger) *Analyzer {
	if features == nil {
		features = DefaultPlatformFeatures
	}
	return &Analyzer{comps: c, decoder: decoder, features: features, logger: logger}
}

// AnalyzeListing scores pulling opts.PartType from l.
func (a *Analyzer) AnalyzeListing(ctx context.Context, l *models.Listing, opts AnalyzeOptions) Analysis {
	an := Analysis{Subject: l.Title}
	if l.Decoded != nil {
		an.Decoded = *l.Decoded
	}
	label := opts.PartType
	if label == "" {
		label = "Cradle"
	}
	a.evaluate(ctx, Lane{Label: label, Query: CompQuery(l, opts.PartType, opts.CradlePos)}, opts, &an)
	a.pickBest(&an)
	return an
}

// AnalyzeQuery scores a free-text part query. Airbag searches are rewritten
// into stronger marketplace queries first.
func (a *Analyzer) AnalyzeQuery(ctx context.Context, raw string, opts AnalyzeOptions) Analysis {
	raw = strings.TrimSpace(raw)
	an := Analysis{Subject: raw}
	if raw == "" {
		an.Diagnostics = append(an.Diagnostics, inputDiag("empty part query"))
		return an
	}

	query, rewritten := RewriteAirbagQuery(raw)
	if rewritten && query != raw {
		a.logger.Info("[analyzer] Airbag query rewritten: %q → %q", raw, query)
	}
	a.evaluate(ctx, Lane{Label: "Query", Query: query}, opts, &an)
	a.pickBest(&an)
	return an
}

// AnalyzeVIN decodes v and scores every cradle lane its drivetrain supports.
// Best.BuyBoth is set when at least two lanes would auto-buy.
func (a *Analyzer) AnalyzeVIN(ctx context.Context, v string, opts AnalyzeOptions) Analysis {
	an := a.decode(ctx, v)
	for _, lane := range CradleLanes(an.Decoded) {
		a.evaluate(ctx, lane, opts, &an)
	}
	a.pickBest(&an)
	return an
}

// ModuleRadar decodes v and scores its electronic modules, most liquid first.
func (a *Analyzer) ModuleRadar(ctx context.Context, v string, opts AnalyzeOptions) Analysis {
	an := a.decode(ctx, v)
	lanes := ModuleQueries(an.Decoded, a.features)
	if len(lanes) == 0 && len(an.Diagnostics) == 0 {
		an.Diagnostics = append(an.Diagnostics, inputDiag("decode is missing year, make or model"))
	}
	for _, lane := range lanes {
		a.evaluate(ctx, lane, opts, &an)
	}
	RankModules(an.Lanes)
	a.pickBest(&an)
	return an
}

func (a *Analyzer) decode(ctx context.Context, v string) Analysis {
	v = strings.ToUpper(strings.TrimSpace(v))
	an := Analysis{Subject: v}
	if a.decoder != nil {
		an.Decoded = a.decoder.Decode(ctx, v)
	}
	if an.Decoded.IsZero() {
		an.Diagnostics = append(an.Diagnostics, inputDiag("VIN "+v+" could not be decoded"))
	} else if label := an.Decoded.Label(); label != "" {
		an.Subject = v + " (" + label + ")"
	}
	return an
}

func (a *Analyzer) evaluate(ctx context.Context, lane Lane, opts AnalyzeOptions, an *Analysis) {
	res := a.comps.Estimate(ctx, lane.Query, opts.MaxSamples)
	an.Diagnostics = append(an.Diagnostics, res.Diagnostics...)

	p := Score(res.Stats, opts.Cost, opts.Ship, opts.BuyerPaysShipping)
	p.Lane = lane.Label
	p.EbayQuery = lane.Query
	an.Lanes = append(an.Lanes, p)

	a.logger.Debug("[analyzer] %s: %d comps (%s), net $%.2f", lane.Label, p.SampleCount, res.Stage, p.NetProfit)
}

func (a *Analyzer) pickBest(an *Analysis) {
	an.Best, an.HasBest = BestLane(an.Lanes)
}

func inputDiag(msg string) models.Diagnostic {
	return models.Diagnostic{Source: "analyzer", Kind: models.DiagInput, Message: msg}
}
