package core

import (
	"fmt"
	"log/slog"

	"printflow/entity"
)

// Routing sends domestic orders to Qikink, North American orders to
// Printify and everything else to Gelato. The decision is deterministic:
// the same destination always lands on the same provider.

func (c *Core) routeOrder(order *entity.Order) (Provider, error) {
	code := order.ShippingAddress.CountryCode()
	if code == "" {
		return nil, fmt.Errorf("order %s: cannot resolve country %q", order.ID, order.ShippingAddress.Country)
	}

	name := providerForCountry(code, c.domesticCountry)
	provider, ok := c.providers[name]
	if !ok {
		return nil, fmt.Errorf("order %s: provider %s is not configured", order.ID, name)
	}

	c.log.Debug("order routed",
		slog.String("order", order.ID),
		slog.String("country", code),
		slog.String("provider", string(name)))
	return provider, nil
}

func providerForCountry(code, domestic string) entity.ProviderName {
	switch code {
	case domestic:
		return entity.ProviderQikink
	case "US", "CA":
		return entity.ProviderPrintify
	default:
		return entity.ProviderGelato
	}
}

// isDomestic drives the invoice tax treatment.
func (c *Core) isDomestic(order *entity.Order) bool {
	return order.ShippingAddress.CountryCode() == c.domesticCountry
}
