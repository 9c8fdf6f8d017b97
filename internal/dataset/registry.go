// Package dataset turns configured CSV files into ready dashboards.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ratiodash/internal/config"
	"ratiodash/internal/engine"
)

var ErrNotFound = errors.New("dataset not found")

// Registry holds the dashboards of one process. It is built once at
// startup and only read afterwards.
type Registry struct {
	order      []string
	dashboards map[string]*engine.Dashboard
}

func NewRegistry(dashboards ...*engine.Dashboard) *Registry {
	r := &Registry{dashboards: make(map[string]*engine.Dashboard, len(dashboards))}
	for _, d := range dashboards {
		r.order = append(r.order, d.Name())
		r.dashboards[d.Name()] = d
	}
	return r
}

func (r *Registry) Get(name string) (*engine.Dashboard, error) {
	d, ok := r.dashboards[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return d, nil
}

// List returns the dashboards in configuration order.
func (r *Registry) List() []*engine.Dashboard {
	out := make([]*engine.Dashboard, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.dashboards[name])
	}
	return out
}

// Load reads every configured dataset concurrently. The first failure
// cancels the rest and is returned.
func Load(ctx context.Context, cfgs []config.DatasetConfig, logger logrus.FieldLogger) (*Registry, error) {
	start := time.Now()
	dashboards := make([]*engine.Dashboard, len(cfgs))

	g, gctx := errgroup.WithContext(ctx)
	for i, cfg := range cfgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := Build(cfg, logger)
			if err != nil {
				return fmt.Errorf("dataset %s: %w", cfg.Name, err)
			}
			dashboards[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"datasets": len(dashboards),
		"elapsed":  time.Since(start).String(),
	}).Info("all datasets ready")
	return NewRegistry(dashboards...), nil
}

// Build loads one dataset and binds it to the category index of its kind.
func Build(cfg config.DatasetConfig, logger logrus.FieldLogger) (*engine.Dashboard, error) {
	idx, err := engine.IndexFor(engine.Kind(cfg.Kind))
	if err != nil {
		return nil, err
	}

	table, err := engine.LoadFile(LoadOptions(cfg, idx), logger)
	if err != nil {
		return nil, err
	}
	return engine.NewDashboard(cfg.Name, table, idx, Presentation(cfg), Defaults(cfg, idx))
}

// LoadOptions maps a dataset config onto loader options. Every indicator
// of idx is required.
func LoadOptions(cfg config.DatasetConfig, idx *engine.CategoryIndex) engine.LoadOptions {
	return engine.LoadOptions{
		Name:          cfg.Name,
		Path:          cfg.Path,
		CountryColumn: cfg.Columns.Country,
		BankColumn:    cfg.Columns.Bank,
		PeriodColumn:  cfg.Columns.Period,
		DateColumn:    cfg.Columns.Date,
		Required:      idx.Indicators(),
		DropOffCycle:  cfg.DropOffCycle,
	}
}

func Presentation(cfg config.DatasetConfig) engine.Presentation {
	title := cfg.Title
	if title == "" {
		title = cfg.Name
	}
	return engine.Presentation{Title: title, Percent: cfg.Percent}
}

// Defaults converts configured defaults into a Selection. Labels are
// normalised where possible; anything unknown is left for the resolver
// to replace.
func Defaults(cfg config.DatasetConfig, idx *engine.CategoryIndex) engine.Selection {
	d := cfg.Defaults
	sel := engine.Selection{
		Countries: d.Countries,
		Banks:     d.Banks,
		Periods:   d.Periods,
		Category:  engine.Category(d.Category),
		Indicator: d.Indicator,
		Chart:     engine.ChartKind(d.Chart),
	}
	if c, err := idx.ParseCategory(d.Category); err == nil {
		sel.Category = c
	}
	if k, err := engine.ParseChartKind(d.Chart); err == nil {
		sel.Chart = k
	}
	return sel.Clone()
}
