// README: Common money value object used across modules.
package types

// Money is an amount in the smallest unit of Currency (paise, cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
