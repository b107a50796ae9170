package types

import "testing"

func TestRequiredWallet(t *testing.T) {
	tests := []struct {
		currency Currency
		want     WalletType
	}{
		{CurrencyArweave, WalletArweave},
		{CurrencyEthereum, WalletEthereum},
		{CurrencyBaseETH, WalletEthereum},
		{CurrencySolana, WalletSolana},
	}

	for _, tt := range tests {
		t.Run(string(tt.currency), func(t *testing.T) {
			got, ok := RequiredWallet(tt.currency)
			if !ok {
				t.Fatalf("RequiredWallet(%q) not found", tt.currency)
			}
			if got != tt.want {
				t.Errorf("RequiredWallet(%q) = %q, want %q", tt.currency, got, tt.want)
			}
		})
	}

	if _, ok := RequiredWallet("dogecoin"); ok {
		t.Error("expected unknown currency to be absent from the table")
	}
}

func TestCurrencies_AllMapped(t *testing.T) {
	for _, c := range Currencies() {
		if _, ok := RequiredWallet(c); !ok {
			t.Errorf("currency %q has no wallet mapping", c)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    Currency
		wantErr bool
	}{
		{"", CurrencyArweave, false},
		{"arweave", CurrencyArweave, false},
		{"ETHEREUM", CurrencyEthereum, false},
		{" base-eth ", CurrencyBaseETH, false},
		{"solana", CurrencySolana, false},
		{"usd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrency(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCurrency(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCurrency(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWallet_StorageKeyLowercase(t *testing.T) {
	w := Wallet{Type: WalletArweave, Address: "AbC123"}
	if got := w.StorageKey(); got != "abc123" {
		t.Errorf("StorageKey() = %q, want %q", got, "abc123")
	}
	if !w.Connected() {
		t.Error("expected wallet to be connected")
	}
	if (Wallet{Type: WalletArweave}).Connected() {
		t.Error("wallet without address must not be connected")
	}
}
