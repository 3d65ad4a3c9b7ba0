package services

import (
	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/scraper/budget"
	"yard-sniper/scraper/budgets3"
	"yard-sniper/scraper/lkq"
	"yard-sniper/scraper/pickandpay"
	"yard-sniper/scraper/upullandpay"
	"yard-sniper/utils"
)

// Yard slugs with a dedicated adapter. Every other slug is an LKQ store.
const (
	SlugBudget      = "budgetupullit"
	SlugBudgetS3    = "budget-s3"
	SlugUPullAndPay = "upullandpay-orlando"
	SlugPickAndPay  = "centralfloridapickandpay"
)

// AdapterFactory builds the adapter for one yard.
type AdapterFactory func(y models.Yard) scraper.Adapter

// Registry dispatches yards to adapters by slug.
type Registry struct {
	factories map[string]AdapterFactory
	fallback  AdapterFactory
}

// NewRegistry creates a Registry that uses fallback for unregistered slugs.
func NewRegistry(fallback AdapterFactory) *Registry {
	return &Registry{factories: make(map[string]AdapterFactory), fallback: fallback}
}

// Register binds slug to f, replacing any earlier binding.
func (r *Registry) Register(slug string, f AdapterFactory) {
	r.factories[slug] = f
}

// Adapter returns the adapter for y.
func (r *Registry) Adapter(y models.Yard) scraper.Adapter {
	if f, ok := r.factories[y.Slug]; ok {
		return f(y)
	}
	return r.fallback(y)
}

// Sources carries what the built-in adapters need.
type Sources struct {
	Fetcher scraper.Fetcher
	// RenderFetcher is used for VIN-only pages when set; Fetcher otherwise.
	RenderFetcher scraper.Fetcher
	Decoder       scraper.VINDecoder
	LKQ           lkq.Config
	PickAndPay    pickandpay.Config
	Budget        budget.Config
	BudgetS3      budgets3.Config
	Logger        *utils.Logger
}

// NewDefaultRegistry wires every built-in adapter.
func NewDefaultRegistry(s Sources) *Registry {
	render := s.RenderFetcher
	if render == nil {
		render = s.Fetcher
	}

	r := NewRegistry(func(y models.Yard) scraper.Adapter {
		return lkq.New(y, s.LKQ, s.Fetcher, s.Logger)
	})
	r.Register(SlugPickAndPay, func(y models.Yard) scraper.Adapter {
		return pickandpay.New(y, s.PickAndPay, s.Fetcher, s.Decoder, s.Logger)
	})
	r.Register(SlugBudget, func(y models.Yard) scraper.Adapter {
		return budget.New(y, s.Budget, render, s.Decoder, s.Logger)
	})
	r.Register(SlugBudgetS3, func(y models.Yard) scraper.Adapter {
		return budgets3.New(y, s.BudgetS3, s.Fetcher, s.Logger)
	})
	r.Register(SlugUPullAndPay, func(y models.Yard) scraper.Adapter {
		return upullandpay.New(y)
	})
	return r
}
