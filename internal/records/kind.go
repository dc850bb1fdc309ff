package records

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four tabular record types.
type Kind int

const (
	Payable Kind = iota
	Receivable
	Invoice
	ProForma
)

type kindInfo struct {
	id    string
	label string
}

var kindInfos = [...]kindInfo{
	Payable:    {id: "Payable", label: "اسناد پرداختنی"},
	Receivable: {id: "Receivable", label: "حساب‌های دریافتنی"},
	Invoice:    {id: "Invoice", label: "فاکتورهای فروش"},
	ProForma:   {id: "ProForma", label: "پیش‌فاکتورها"},
}

// kindAliases maps legacy machine ids to their kind.
var kindAliases = map[string]Kind{
	"invoices": Invoice,
	"performa": ProForma,
	"proforma": ProForma,
	"payables": Payable,
}

// Kinds returns every record kind in declaration order.
func Kinds() []Kind {
	return []Kind{Payable, Receivable, Invoice, ProForma}
}

// ID is the stable machine identifier of k.
func (k Kind) ID() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindInfos[k].id
}

// Label is the Persian display label of k. It never appears in cache keys.
func (k Kind) Label() string {
	if !k.Valid() {
		return ""
	}
	return kindInfos[k].label
}

// Slug is the lower-case id used in cache keys and URLs.
func (k Kind) Slug() string { return strings.ToLower(k.ID()) }

func (k Kind) String() string { return k.ID() }

func (k Kind) Valid() bool { return k >= Payable && k <= ProForma }

// MarshalJSON encodes k as {"id": ..., "label": ...}.
func (k Kind) MarshalJSON() ([]byte, error) {
	return marshalIDLabel(k.ID(), k.Label())
}

// ParseKind resolves a machine id (case-insensitive) or a legacy alias.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if strings.ToLower(k.ID()) == key {
			return k, nil
		}
	}
	if k, ok := kindAliases[key]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown record kind %q", s)
}
