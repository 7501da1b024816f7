// Package importer moves state that older storefront builds kept in the browser into the
// server-side state backend. The input is a CSV export with one browser storage entry per row.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"pizza-storefront/internal/cart"
	"pizza-storefront/internal/checkout"
	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/storage"
)

// Browser storage keys understood by the importer.
const (
	BrowserCartKey    = "pizza_cart"
	BrowserFormKey    = "checkoutFormData"
	BrowserAddressKey = "savedAddresses"
)

// Result counts what a run did.
type Result struct {
	Sessions int `json:"sessions"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// CSVImporter reads session,key,value rows. A row with an empty session continues the session
// of the row above it.
type CSVImporter struct {
	reader  *csv.Reader
	storage storage.Store
	logger  *slog.Logger
	newID   func() string
}

func NewCSVImporter(r io.Reader, st storage.Store, logger *slog.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // exports may drop trailing empty columns
	csvr.LazyQuotes = true
	return &CSVImporter{
		reader:  csvr,
		storage: st,
		logger:  logs.OrDiscard(logger),
		newID:   uuid.NewString,
	}
}

type entry struct {
	session string
	key     string
	value   string
}

// Run imports every row. Rows that do not decode are skipped and counted; a storage failure
// stops the run.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, pkgerrors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)
	for _, col := range []string{"session", "key", "value"} {
		if _, ok := index[col]; !ok {
			return res, pkgerrors.Errorf("missing column %q", col)
		}
	}

	var current string
	seen := make(map[string]struct{})
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, pkgerrors.Wrap(err, "read row")
		}

		e := entry{
			session: pick(record, index, "session"),
			key:     pick(record, index, "key"),
			value:   pick(record, index, "value"),
		}
		if e.session == "" {
			e.session = current
		}
		current = e.session
		if e.session == "" || e.key == "" {
			res.Skipped++
			continue
		}
		if _, err := uuid.Parse(e.session); err != nil {
			i.logger.Warn("skipping row with invalid session", "session", e.session)
			res.Skipped++
			continue
		}

		ok, err := i.save(ctx, e)
		if err != nil {
			return res, err
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Imported++
		if _, dup := seen[e.session]; !dup {
			seen[e.session] = struct{}{}
			res.Sessions++
		}
	}
	return res, nil
}

// save decodes e into its typed form and writes it. It reports false for rows it skips.
func (i *CSVImporter) save(ctx context.Context, e entry) (bool, error) {
	var (
		key   string
		value any
	)
	switch e.key {
	case BrowserCartKey:
		var items []domain.LineItem
		if err := json.Unmarshal([]byte(e.value), &items); err != nil {
			i.logger.Warn("skipping unreadable cart", "session", e.session, "err", err)
			return false, nil
		}
		key, value = cart.Key(e.session), i.cleanCart(items)
	case BrowserFormKey:
		f := checkout.DefaultForm()
		if err := json.Unmarshal([]byte(e.value), &f); err != nil {
			i.logger.Warn("skipping unreadable checkout form", "session", e.session, "err", err)
			return false, nil
		}
		key, value = checkout.FormKey(e.session), f
	case BrowserAddressKey:
		var list []checkout.SavedAddress
		if err := json.Unmarshal([]byte(e.value), &list); err != nil {
			i.logger.Warn("skipping unreadable address history", "session", e.session, "err", err)
			return false, nil
		}
		key, value = checkout.AddressKey(e.session), cleanAddresses(list)
	default:
		i.logger.Debug("skipping unknown key", "session", e.session, "key", e.key)
		return false, nil
	}

	if err := storage.SetJSON(ctx, i.storage, key, value); err != nil {
		return false, pkgerrors.Wrapf(err, "store %s", key)
	}
	return true, nil
}

// cleanCart drops lines without a product and gives every kept line an id.
func (i *CSVImporter) cleanCart(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			continue
		}
		if it.ID == "" {
			it.ID = i.newID()
		}
		it.Quantity = it.EffectiveQuantity()
		it.Price = it.EffectivePrice()
		out = append(out, it)
	}
	return out
}

func cleanAddresses(list []checkout.SavedAddress) []checkout.SavedAddress {
	out := make([]checkout.SavedAddress, 0, len(list))
	for _, a := range list {
		if strings.TrimSpace(a.Address) == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
