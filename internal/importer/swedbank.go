package importer

import (
	"fmt"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/numeric"
)

// Swedbank account exports: one row per booked transaction, headers on a
// preamble-separated row. Amounts are signed.
const (
	swedbankColDate   = "transaktionsdag"
	swedbankColDesc   = "beskrivning"
	swedbankColAmount = "belopp"
)

func swedbankVariant() variant {
	return variant{
		required: []string{swedbankColDate, swedbankColDesc, swedbankColAmount},
		decode:   decodeSwedbankRow,
	}
}

func decodeSwedbankRow(cells map[string]string) (model.StatementRow, error) {
	date, err := numeric.ParseDate(cells[swedbankColDate])
	if err != nil {
		return model.StatementRow{}, fmt.Errorf("date: %v", err)
	}
	amount, err := numeric.ParseAmount(cells[swedbankColAmount])
	if err != nil {
		return model.StatementRow{}, fmt.Errorf("amount: %v", err)
	}
	return model.StatementRow{
		Date:        date,
		Description: cells[swedbankColDesc],
		Amount:      amount,
	}, nil
}
