package model

// BankFormat identifies which bank's spreadsheet export an account produces.
// The set is closed; the importer dispatches on it exhaustively.
type BankFormat string

const (
	BankFormatSwedbank BankFormat = "swedbank"
	BankFormatSEB      BankFormat = "seb"
	BankFormatCircleK  BankFormat = "circlek_mastercard"
)

// ValidBankFormat reports whether f is one of the supported formats.
func ValidBankFormat(f BankFormat) bool {
	switch f {
	case BankFormatSwedbank, BankFormatSEB, BankFormatCircleK:
		return true
	}
	return false
}
