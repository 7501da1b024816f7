// Package addon turns the add-on field descriptors an external plugin attaches to a product into
// normalized AddonFields. The plugin's payload shape is not fixed; the resolver tries every known
// shape in a fixed order and degrades to "no addons" rather than failing.
package addon

import (
	"context"
	"encoding/json"
	"log/slog"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
)

// Product meta keys used by the field-group plugin.
const (
	MetaFieldGroup = "_wapf_fieldgroup"
)

// Meta keys that may carry the field array when the field-group marker is present.
var fieldArrayMetaKeys = []string{"_wapf_fields", "wapf_fields", "_wapf_fieldgroup_fields"}

// FieldSource fetches the raw product-fields payload from the configuration service.
type FieldSource interface {
	ProductFields(ctx context.Context, productID int64) (json.RawMessage, error)
}

type Resolver struct {
	remote FieldSource
	logger *slog.Logger
}

// NewResolver builds a resolver; remote may be nil to skip the remote lookup.
func NewResolver(remote FieldSource, logger *slog.Logger) *Resolver {
	return &Resolver{remote: remote, logger: logs.OrDiscard(logger)}
}

// Resolve returns the product's addon fields. An empty result is not an error: most products
// carry no addons.
func (r *Resolver) Resolve(ctx context.Context, p domain.Product) []domain.AddonField {
	if fields := r.fromMeta(p); len(fields) > 0 {
		return fields
	}
	if fields := r.fromRemote(ctx, p.ID); len(fields) > 0 {
		return fields
	}
	for _, raw := range []json.RawMessage{p.WAPFFields, p.ProductAddons} {
		if fields := normalizeAll(matchShapes(raw, []shapeMatcher{directArray, wrapped("fields")})); len(fields) > 0 {
			return fields
		}
	}
	return nil
}

func (r *Resolver) fromMeta(p domain.Product) []domain.AddonField {
	marker, ok := p.Meta(MetaFieldGroup)
	if !ok {
		return nil
	}
	for _, key := range fieldArrayMetaKeys {
		raw, ok := p.Meta(key)
		if !ok {
			continue
		}
		if fields := normalizeAll(matchShapes(raw, []shapeMatcher{directArray})); len(fields) > 0 {
			return fields
		}
	}
	fields := normalizeAll(matchShapes(marker, []shapeMatcher{wrapped("fields")}))
	if len(fields) == 0 {
		r.logger.Debug("field group marker without fields", "product_id", p.ID)
	}
	return fields
}

func (r *Resolver) fromRemote(ctx context.Context, productID int64) []domain.AddonField {
	if r.remote == nil {
		return nil
	}
	raw, err := r.remote.ProductFields(ctx, productID)
	if err != nil {
		r.logger.Warn("remote product fields unavailable", "product_id", productID, "err", err)
		return nil
	}
	list := matchShapes(raw, remoteShapes)
	if list == nil && len(raw) > 0 {
		r.logger.Debug("unrecognized product fields payload", "product_id", productID)
	}
	return normalizeAll(list)
}

func normalizeAll(descriptors []map[string]any) []domain.AddonField {
	var out []domain.AddonField
	for _, d := range descriptors {
		if f, ok := normalizeField(d); ok {
			out = append(out, f)
		}
	}
	return out
}
