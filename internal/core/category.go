package core

import (
	"strings"
)

// Category is the destination classification of an expense. Each category
// owns exactly one column of the weekly spreadsheet.
type Category int

const (
	InvoiceCreditCard Category = iota + 1
	ReceiptCreditCard
	ReceiptCash
	InvoiceCash
	InvoiceBankTransfer
)

type categoryInfo struct {
	key     string
	label   string
	column  string
	aliases []string
}

// categories is the complete category table. Adding a Category constant
// without a row here makes IsValid false for it.
var categories = map[Category]categoryInfo{
	InvoiceCreditCard: {
		key:     "invoice-credit-card",
		label:   "Invoices – nominal credit card",
		column:  "H",
		aliases: []string{"Fatture – carta di credito nominativa"},
	},
	ReceiptCreditCard: {
		key:     "receipt-credit-card",
		label:   "Receipts – nominal credit card",
		column:  "G",
		aliases: []string{"Ricevute – carta di credito nominativa"},
	},
	ReceiptCash: {
		key:     "receipt-cash",
		label:   "Receipts – cash",
		column:  "C",
		aliases: []string{"Ricevute – contanti"},
	},
	InvoiceCash: {
		key:     "invoice-cash",
		label:   "Invoices – cash",
		column:  "D",
		aliases: []string{"Fatture – contanti"},
	},
	InvoiceBankTransfer: {
		key:     "invoice-bank-transfer",
		label:   "Invoices – bank transfer",
		column:  "I",
		aliases: []string{"Fatture – bonifico"},
	},
}

// Categories returns every category in form display order.
func Categories() []Category {
	return []Category{ReceiptCash, InvoiceCash, ReceiptCreditCard, InvoiceCreditCard, InvoiceBankTransfer}
}

// IsValid reports whether c is part of the category table.
func (c Category) IsValid() bool {
	_, ok := categories[c]
	return ok
}

// Key is the stable identifier used in forms and CLI flags.
func (c Category) Key() string {
	return categories[c].key
}

// Label is the human readable name, also used in the persisted document.
func (c Category) Label() string {
	return categories[c].label
}

// Column is the spreadsheet column letter receiving the amount.
func (c Category) Column() string {
	return categories[c].column
}

// String implements fmt.Stringer
func (c Category) String() string {
	if !c.IsValid() {
		return "unknown"
	}
	return c.Label()
}

// ParseCategory resolves a key, label or legacy Italian label. Matching is
// case-insensitive and treats en dash, em dash and hyphen alike.
func ParseCategory(s string) (Category, error) {
	needle := normalizeLabel(s)
	if needle == "" {
		return 0, ErrUnknownCategory
	}
	for c, info := range categories {
		if needle == info.key || needle == normalizeLabel(info.label) {
			return c, nil
		}
		for _, alias := range info.aliases {
			if needle == normalizeLabel(alias) {
				return c, nil
			}
		}
	}
	return 0, ErrUnknownCategory
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("–", "-", "—", "-").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
