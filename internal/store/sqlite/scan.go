package sqlite

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"vye/internal/core"
)

type accountScan struct {
	id, label, typ, balance, institution, iban, number sql.NullString
}

func (a accountScan) toCore() core.Account {
	return core.Account{
		ID:               a.id.String,
		Label:            a.label.String,
		Type:             core.ParseAccountType(a.typ.String),
		Balance:          core.ParseBalance(a.balance.String),
		InstitutionLabel: a.institution.String,
		IBAN:             a.iban.String,
		Number:           a.number.String,
	}
}

type categoryScan struct {
	code, label, translation sql.NullString
}

func (c categoryScan) toCore() core.Category {
	return core.Category{Code: c.code.String, Label: c.label.String, Translation: c.translation.String}
}

type operationScan struct {
	id                                   int64
	accountID, date, label               sql.NullString
	categoryID, autoCategoryID, currency sql.NullString
	amount                               sql.NullFloat64
	parentID                             sql.NullInt64
}

func (o operationScan) toCore() core.Operation {
	op := core.Operation{
		ID:                    o.id,
		AccountID:             o.accountID.String,
		Label:                 o.label.String,
		CategoryCode:          o.categoryID.String,
		AutomaticCategoryCode: o.autoCategoryID.String,
		Currency:              o.currency.String,
	}
	if o.amount.Valid {
		op.Amount = decimal.NewNullDecimal(decimal.NewFromFloat(o.amount.Float64))
	}
	if o.date.Valid {
		op.Date, _ = core.ParseDate(o.date.String)
	}
	if o.parentID.Valid {
		p := o.parentID.Int64
		op.ParentID = &p
	}
	return op
}
