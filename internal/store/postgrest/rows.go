package postgrest

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"vye/internal/core"
)

const (
	tableAccounts   = "cozy_bank_accounts"
	tableOperations = "cozy_bank_operations"
	tableCategories = "cozy_operation_categories"
	tableHistory    = "cozy_balance_histories"

	accountJoin  = tableAccounts + "!cozy_bank_operations_cozy_account_id_fkey(*)"
	categoryJoin = tableCategories + "!cozy_bank_operations_cozy_category_id_fkey(*)"
)

// looseText accepts a JSON string, number or null. Balances arrive as
// decimal strings but some deployments expose them as numerics.
type looseText struct {
	v *string
}

func (t *looseText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		t.v = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.v = &s
		return nil
	}
	s := string(b)
	t.v = &s
	return nil
}

func (t looseText) String() string {
	if t.v == nil {
		return ""
	}
	return *t.v
}

type accountRow struct {
	DocID            string    `json:"cozy_doc_id"`
	Label            *string   `json:"cozy_label"`
	Type             *string   `json:"cozy_account_type"`
	Balance          looseText `json:"cozy_balance"`
	InstitutionLabel *string   `json:"cozy_institution_label"`
	IBAN             *string   `json:"cozy_iban"`
	Number           *string   `json:"cozy_number"`
}

func (r accountRow) toCore() core.Account {
	return core.Account{
		ID:               r.DocID,
		Label:            deref(r.Label),
		Type:             core.ParseAccountType(deref(r.Type)),
		Balance:          core.ParseBalancePtr(r.Balance.v),
		InstitutionLabel: deref(r.InstitutionLabel),
		IBAN:             deref(r.IBAN),
		Number:           deref(r.Number),
	}
}

type categoryRow struct {
	ID          int64     `json:"id"`
	Code        looseText `json:"code"`
	Label       *string   `json:"label"`
	Translation *string   `json:"fr_traduction"`
}

func (r categoryRow) toCore() core.Category {
	return core.Category{
		Code:        r.Code.String(),
		Label:       deref(r.Label),
		Translation: deref(r.Translation),
	}
}

type operationRow struct {
	ID                int64               `json:"id"`
	AccountID         *string             `json:"cozy_account_id"`
	Amount            decimal.NullDecimal `json:"cozy_amount"`
	Date              *string             `json:"cozy_realisation_date"`
	Label             *string             `json:"cozy_label"`
	CategoryID        looseText           `json:"cozy_category_id"`
	AutomaticCategory looseText           `json:"cozy_automatic_category_id"`
	ParentID          *int64              `json:"parent_id"`
	Currency          *string             `json:"cozy_currency"`

	Account  *accountRow  `json:"cozy_bank_accounts"`
	Category *categoryRow `json:"cozy_operation_categories"`
}

func (r operationRow) toCore() core.Operation {
	op := core.Operation{
		ID:                    r.ID,
		AccountID:             deref(r.AccountID),
		Amount:                r.Amount,
		Label:                 deref(r.Label),
		CategoryCode:          r.CategoryID.String(),
		AutomaticCategoryCode: r.AutomaticCategory.String(),
		ParentID:              r.ParentID,
		Currency:              deref(r.Currency),
	}
	if r.Date != nil {
		op.Date, _ = core.ParseDate(*r.Date)
	}
	if r.Account != nil {
		a := r.Account.toCore()
		op.Account = &a
	}
	if r.Category != nil {
		c := r.Category.toCore()
		op.Category = &c
	}
	return op
}

type historyRow struct {
	AccountID *string         `json:"cozy_account_id"`
	Day       string          `json:"day"`
	Balance   decimal.Decimal `json:"balance"`
}

type balancePointRow struct {
	AccountID    string          `json:"account_id"`
	AccountLabel *string         `json:"account_label"`
	BalanceDate  string          `json:"balance_date"`
	Balance      decimal.Decimal `json:"balance"`
}

type averageBalanceRow struct {
	IntervalType  string          `json:"interval_type"`
	IntervalStart string          `json:"interval_start"`
	AvgBalance    decimal.Decimal `json:"avg_balance"`
}

type balanceSeriesArgs struct {
	StartDate string `json:"start_date"`
}

type averageBalanceArgs struct {
	AccountID string `json:"p_cozy_account_id"`
	StartDate string `json:"p_start_date"`
	EndDate   string `json:"p_end_date"`
}

type categoryUpdate struct {
	CategoryID string `json:"cozy_category_id"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
