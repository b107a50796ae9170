package types

import (
	"fmt"
	"strings"
)

// WalletType identifies the chain family of a connected wallet.
type WalletType string

// Supported wallet types.
const (
	WalletArweave  WalletType = "arweave"
	WalletEthereum WalletType = "ethereum"
	WalletSolana   WalletType = "solana"
)

// ParseWalletType parses a wallet type name.
func ParseWalletType(s string) (WalletType, error) {
	switch WalletType(strings.ToLower(strings.TrimSpace(s))) {
	case WalletArweave:
		return WalletArweave, nil
	case WalletEthereum:
		return WalletEthereum, nil
	case WalletSolana:
		return WalletSolana, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("invalid wallet type: %q (must be arweave, ethereum, or solana)", s)
	}
}

// Wallet is the connected wallet credential. It is read-only for the
// duration of a publish flow.
type Wallet struct {
	Type    WalletType
	Address string
}

// Connected reports whether a wallet with an address is present.
func (w Wallet) Connected() bool {
	return w.Type != "" && w.Address != ""
}

// StorageKey returns the lowercase address used to key per-wallet state.
func (w Wallet) StorageKey() string {
	return strings.ToLower(w.Address)
}

// Currency selects how a paid bulk upload is paid for.
type Currency string

// Paid upload currencies.
const (
	CurrencyArweave  Currency = "arweave"
	CurrencyEthereum Currency = "ethereum"
	CurrencyBaseETH  Currency = "base-eth"
	CurrencySolana   Currency = "solana"
)

// currencyWallets maps each payment currency to the wallet type that can
// authorize it. Adding a currency is a table entry, not a new branch.
var currencyWallets = map[Currency]WalletType{
	CurrencyArweave:  WalletArweave,
	CurrencyEthereum: WalletEthereum,
	CurrencyBaseETH:  WalletEthereum,
	CurrencySolana:   WalletSolana,
}

// DirectUploadWallet is the wallet type required by the free direct path.
const DirectUploadWallet = WalletArweave

// RequiredWallet returns the wallet type that must be connected to pay
// with the given currency.
func RequiredWallet(c Currency) (WalletType, bool) {
	w, ok := currencyWallets[c]
	return w, ok
}

// Currencies returns the supported currencies in display order.
func Currencies() []Currency {
	return []Currency{CurrencyArweave, CurrencyEthereum, CurrencyBaseETH, CurrencySolana}
}

// ParseCurrency parses a currency name. Empty input selects the native currency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CurrencyArweave, nil
	}
	if _, ok := currencyWallets[c]; !ok {
		return "", fmt.Errorf("invalid currency: %q (must be arweave, ethereum, base-eth, or solana)", s)
	}
	return c, nil
}
