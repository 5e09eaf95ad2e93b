package importer

import (
	"fmt"
	"strings"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/numeric"
)

// Circle K Mastercard exports list card purchases with a separate location
// column. Purchases are always outflows, so amounts are forced
// non-positive regardless of how the export signs them.
const (
	circleKColDate     = "datum"
	circleKColDesc     = "specifikation"
	circleKColLocation = "ort"
	circleKColAmount   = "belopp"
)

func circleKVariant() variant {
	return variant{
		required: []string{circleKColDate, circleKColDesc, circleKColLocation, circleKColAmount},
		decode:   decodeCircleKRow,
	}
}

func decodeCircleKRow(cells map[string]string) (model.StatementRow, error) {
	date, err := numeric.ParseDate(cells[circleKColDate])
	if err != nil {
		return model.StatementRow{}, fmt.Errorf("date: %v", err)
	}
	amount, err := numeric.ParseAmount(cells[circleKColAmount])
	if err != nil {
		return model.StatementRow{}, fmt.Errorf("amount: %v", err)
	}
	if amount.IsPositive() {
		amount = amount.Neg()
	}

	desc := cells[circleKColDesc]
	if loc := cells[circleKColLocation]; loc != "" {
		desc = strings.TrimSpace(desc + " " + loc)
	}
	return model.StatementRow{
		Date:        date,
		Description: desc,
		Amount:      amount,
	}, nil
}
