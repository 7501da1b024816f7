package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/money"
)

// wooShippingMethod is the zone method shape; cost and free-shipping threshold live in settings.
type wooShippingMethod struct {
	InstanceID int64  `json:"instance_id"`
	MethodID   string `json:"method_id"`
	Title      string `json:"title"`
	Enabled    bool   `json:"enabled"`
	Settings   struct {
		Cost      wooSetting `json:"cost"`
		MinAmount wooSetting `json:"min_amount"`
	} `json:"settings"`
}

type wooSetting struct {
	Value string `json:"value"`
}

func (m wooShippingMethod) toDomain() domain.ShippingMethod {
	out := domain.ShippingMethod{
		InstanceID: m.InstanceID,
		MethodID:   m.MethodID,
		Title:      m.Title,
		Enabled:    m.Enabled,
	}
	if v, err := money.Parse(m.Settings.Cost.Value); err == nil {
		out.Cost = v
	}
	if strings.TrimSpace(m.Settings.MinAmount.Value) != "" {
		if v, err := money.Parse(m.Settings.MinAmount.Value); err == nil {
			out.MinAmount = &v
		}
	}
	return out
}

type wooGateway struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

type wooSettingEntry struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// FetchShippingMethods lists the shipping zones with their methods. The result is cached.
func (c *Client) FetchShippingMethods(ctx context.Context) ([]domain.ShippingZone, error) {
	c.mu.RLock()
	cached := c.shipping
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := c.group.Do("shipping", func() (any, error) {
		var zones []domain.ShippingZone
		if err := c.do(ctx, "fetch shipping zones", http.MethodGet, "/shipping/zones", nil, nil, &zones); err != nil {
			return nil, err
		}
		for i := range zones {
			var methods []wooShippingMethod
			path := "/shipping/zones/" + strconv.FormatInt(zones[i].ID, 10) + "/methods"
			if err := c.do(ctx, "fetch shipping methods", http.MethodGet, path, nil, nil, &methods); err != nil {
				return nil, err
			}
			zones[i].Methods = make([]domain.ShippingMethod, 0, len(methods))
			for _, m := range methods {
				zones[i].Methods = append(zones[i].Methods, m.toDomain())
			}
		}
		if zones == nil {
			zones = []domain.ShippingZone{}
		}
		c.mu.Lock()
		c.shipping = zones
		c.mu.Unlock()
		return zones, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ShippingZone), nil
}

// FetchPaymentMethods lists the enabled payment gateways. The result is cached.
func (c *Client) FetchPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	c.mu.RLock()
	cached := c.payments
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := c.group.Do("payments", func() (any, error) {
		var gateways []wooGateway
		if err := c.do(ctx, "fetch payment gateways", http.MethodGet, "/payment_gateways", nil, nil, &gateways); err != nil {
			return nil, err
		}
		out := make([]domain.PaymentMethod, 0, len(gateways))
		for _, g := range gateways {
			if !g.Enabled {
				continue
			}
			out = append(out, domain.PaymentMethod{ID: g.ID, Title: g.Title, Description: g.Description, Enabled: true})
		}
		c.mu.Lock()
		c.payments = out
		c.mu.Unlock()
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.PaymentMethod), nil
}

// FetchStoreInfo derives the store information from the general settings group. Settings the
// backend leaves blank keep the configured fallback values.
func (c *Client) FetchStoreInfo(ctx context.Context) (domain.StoreInfo, error) {
	c.mu.RLock()
	cached := c.store
	c.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	v, err, _ := c.group.Do("store", func() (any, error) {
		var entries []wooSettingEntry
		if err := c.do(ctx, "fetch store settings", http.MethodGet, "/settings/general", nil, nil, &entries); err != nil {
			return nil, err
		}
		info := c.fallback
		for _, e := range entries {
			s, _ := e.Value.(string)
			if s == "" {
				continue
			}
			switch e.ID {
			case "woocommerce_store_address":
				info.Address = s
			case "woocommerce_store_city":
				info.City = s
			case "woocommerce_default_country":
				// "CL:RM" carries the state after the colon.
				country, _, _ := strings.Cut(s, ":")
				info.Country = country
			case "woocommerce_currency":
				info.Currency = s
			}
		}
		c.mu.Lock()
		c.store = &info
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return domain.StoreInfo{}, err
	}
	return v.(domain.StoreInfo), nil
}

// ClearCache drops the cached shipping, payment and store data.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.shipping = nil
	c.payments = nil
	c.store = nil
	c.mu.Unlock()
}

// DefaultPaymentMethods is served when the gateways cannot be read.
func DefaultPaymentMethods() []domain.PaymentMethod {
	return []domain.PaymentMethod{
		{ID: domain.PaymentCOD, Title: "Pago en efectivo", Enabled: true},
		{ID: domain.PaymentTransfer, Title: "Transferencia bancaria", Enabled: true},
	}
}

// DefaultShippingZones is served when the zones cannot be read: a single flat rate at fee.
func DefaultShippingZones(fee money.Amount) []domain.ShippingZone {
	return []domain.ShippingZone{{
		ID:   0,
		Name: "Default",
		Methods: []domain.ShippingMethod{
			{MethodID: domain.ShippingFlatRate, Title: "Despacho a domicilio", Enabled: true, Cost: fee},
			{MethodID: domain.ShippingLocalPickup, Title: "Retiro en local", Enabled: true},
		},
	}}
}

func (c *Client) StoreInfoOrDefault(ctx context.Context) domain.StoreInfo {
	info, err := c.FetchStoreInfo(ctx)
	if err != nil {
		c.logger.Warn("store info unavailable, using fallback", "err", err)
		return c.fallback
	}
	return info
}

func (c *Client) ShippingMethodsOrDefault(ctx context.Context, fee money.Amount) []domain.ShippingZone {
	zones, err := c.FetchShippingMethods(ctx)
	if err != nil {
		c.logger.Warn("shipping methods unavailable, using fallback", "err", err)
		return DefaultShippingZones(fee)
	}
	return zones
}

func (c *Client) PaymentMethodsOrDefault(ctx context.Context) []domain.PaymentMethod {
	methods, err := c.FetchPaymentMethods(ctx)
	if err != nil {
		c.logger.Warn("payment methods unavailable, using fallback", "err", err)
		return DefaultPaymentMethods()
	}
	return methods
}
