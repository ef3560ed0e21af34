package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/rates"
	"github.com/blockremit/billpay/types"
)

// DataPlan is one purchasable mobile-data bundle.
type DataPlan struct {
	ID       string
	Network  string
	Name     string
	PriceNGN decimal.Decimal
}

// ElectricityCompany is one supported distribution company with the amount
// bounds it accepts per vend.
type ElectricityCompany struct {
	Code   string
	Name   string
	MinNGN decimal.Decimal
	MaxNGN decimal.Decimal
}

type catalogData struct {
	plans     map[string]DataPlan
	companies map[string]ElectricityCompany
}

// Catalog serves plan and company lookups through a TTL cache so a remote
// catalog source can be swapped in without changing callers. The default
// loader returns the static tables below.
type Catalog struct {
	cache *rates.Cache[catalogData]
}

// CatalogLoader fetches the current plan/company tables.
type CatalogLoader func(ctx context.Context) ([]DataPlan, []ElectricityCompany, error)

func NewCatalog(ttl time.Duration, loader CatalogLoader) *Catalog {
	if loader == nil {
		loader = staticCatalog
	}
	return &Catalog{
		cache: rates.NewCache(ttl, func(ctx context.Context) (catalogData, error) {
			plans, companies, err := loader(ctx)
			if err != nil {
				return catalogData{}, err
			}
			data := catalogData{
				plans:     make(map[string]DataPlan, len(plans)),
				companies: make(map[string]ElectricityCompany, len(companies)),
			}
			for _, p := range plans {
				data.plans[p.ID] = p
			}
			for _, c := range companies {
				data.companies[c.Code] = c
			}
			return data, nil
		}),
	}
}

// PlanByID resolves a data plan, refreshing the catalog when stale.
func (c *Catalog) PlanByID(ctx context.Context, id string) (DataPlan, error) {
	data, err := c.cache.GetOrRefresh(ctx)
	if err != nil {
		return DataPlan{}, err
	}
	plan, ok := data.plans[id]
	if !ok {
		return DataPlan{}, &types.BillPayError{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("unknown data plan %q", id),
		}
	}
	return plan, nil
}

// CompanyByCode resolves an electricity company.
func (c *Catalog) CompanyByCode(ctx context.Context, code string) (ElectricityCompany, error) {
	data, err := c.cache.GetOrRefresh(ctx)
	if err != nil {
		return ElectricityCompany{}, err
	}
	company, ok := data.companies[code]
	if !ok {
		return ElectricityCompany{}, &types.BillPayError{
			Code:    types.ErrValidation,
			Message: fmt.Sprintf("unknown electricity company %q", code),
		}
	}
	return company, nil
}

func staticCatalog(context.Context) ([]DataPlan, []ElectricityCompany, error) {
	plans := []DataPlan{
		{ID: "mtn-1gb-30d", Network: "mtn", Name: "MTN 1GB / 30 days", PriceNGN: decimal.NewFromInt(500)},
		{ID: "mtn-3gb-30d", Network: "mtn", Name: "MTN 3GB / 30 days", PriceNGN: decimal.NewFromInt(1500)},
		{ID: "mtn-10gb-30d", Network: "mtn", Name: "MTN 10GB / 30 days", PriceNGN: decimal.NewFromInt(4000)},
		{ID: "airtel-1gb-30d", Network: "airtel", Name: "Airtel 1GB / 30 days", PriceNGN: decimal.NewFromInt(500)},
		{ID: "airtel-5gb-30d", Network: "airtel", Name: "Airtel 5GB / 30 days", PriceNGN: decimal.NewFromInt(2500)},
		{ID: "glo-2gb-30d", Network: "glo", Name: "Glo 2GB / 30 days", PriceNGN: decimal.NewFromInt(1000)},
		{ID: "9mobile-1.5gb-30d", Network: "9mobile", Name: "9mobile 1.5GB / 30 days", PriceNGN: decimal.NewFromInt(1000)},
	}
	companies := []ElectricityCompany{
		{Code: "ikeja-electric", Name: "Ikeja Electric", MinNGN: decimal.NewFromInt(1000), MaxNGN: decimal.NewFromInt(500_000)},
		{Code: "eko-electric", Name: "Eko Electricity Distribution", MinNGN: decimal.NewFromInt(1000), MaxNGN: decimal.NewFromInt(500_000)},
		{Code: "abuja-electric", Name: "Abuja Electricity Distribution", MinNGN: decimal.NewFromInt(500), MaxNGN: decimal.NewFromInt(200_000)},
		{Code: "phed", Name: "Port Harcourt Electricity Distribution", MinNGN: decimal.NewFromInt(500), MaxNGN: decimal.NewFromInt(200_000)},
		{Code: "kano-electric", Name: "Kano Electricity Distribution", MinNGN: decimal.NewFromInt(500), MaxNGN: decimal.NewFromInt(100_000)},
	}
	return plans, companies, nil
}
