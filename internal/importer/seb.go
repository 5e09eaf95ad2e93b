package importer

import (
	"fmt"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/numeric"
)

// SEB account exports. Same shape as Swedbank but different header names;
// the description column is "Text/mottagare".
const (
	sebColDate   = "bokforingsdatum"
	sebColDesc   = "text/mottagare"
	sebColAmount = "belopp"
)

func sebVariant() variant {
	return variant{
		required: []string{sebColDate, sebColDesc, sebColAmount},
		decode:   decodeSEBRow,
	}
}

func decodeSEBRow(cells map[string]string) (model.StatementRow, error) {
	date, err := numeric.ParseDate(cells[sebColDate])
	if err != nil {
		return model.StatementRow{}, fmt.Errorf("date: %v", err)
	}
	amount, err := numeric.ParseAmount(cells[sebColAmount])
	if err != nil {
		return model.StatementRow{}, fmt.Errorf("amount: %v", err)
	}
	return model.StatementRow{
		Date:        date,
		Description: cells[sebColDesc],
		Amount:      amount,
	}, nil
}
