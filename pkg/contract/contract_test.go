package contract

import (
	"strings"
	"testing"
)

func TestChainName(t *testing.T) {
	cases := []struct {
		chainID int64
		want    string
	}{
		{1, "ethereum"},
		{10, "optimism"},
		{42161, "arbitrum"},
		{8453, "base"},
		{137, "polygon"},
		{5000, "chain_5000"},
	}
	for _, tc := range cases {
		if got := ChainName(tc.chainID); got != tc.want {
			t.Errorf("ChainName(%d) = %q, want %q", tc.chainID, got, tc.want)
		}
	}
}

func TestDetectType(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"TransparentUpgradeableProxy", "Proxy"},
		{"UniswapV2Router02", "Router"},
		{"UniswapV3Factory", "Factory"},
		{"WeightedPool", "Pool"},
		{"YearnVault", "Vault"},
		{"GovernanceToken", "Token"},
		{"Comptroller", ""},
	}
	for _, tc := range cases {
		if got := DetectType(tc.name); got != tc.want {
			t.Errorf("DetectType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("0xDAC17F958D2EE523A2206206994597C13D831EC7")
	if err != nil {
		t.Fatalf("NormalizeAddress() failed: %v", err)
	}
	if got != "0xdac17f958d2ee523a2206206994597c13d831ec7" {
		t.Errorf("expected lowercased address, got %q", got)
	}

	if _, err := NormalizeAddress("not-an-address"); err == nil {
		t.Error("expected invalid address to fail")
	}
	if _, err := NormalizeAddress("0x1234"); err == nil {
		t.Error("expected short address to fail")
	}
}

func TestParseAddressList(t *testing.T) {
	input := `
# Curated DeFi contracts
0xdAC17F958D2ee523a2206206994597C13D831ec7,1,Tether
0x4200000000000000000000000000000000000042,10  # governance token, no protocol yet

0x1F98431c8aD98523631AE4a59f267346ea31F984,1,Uniswap
`
	entries, err := ParseAddressList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseAddressList() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Address != "0xdac17f958d2ee523a2206206994597c13d831ec7" {
		t.Errorf("address not normalized: %q", first.Address)
	}
	if first.ChainID != 1 || first.Protocol != "Tether" {
		t.Errorf("unexpected first entry: %+v", first)
	}

	if entries[1].ChainID != 10 || entries[1].Protocol != "" {
		t.Errorf("trailing comment not stripped: %+v", entries[1])
	}
}

func TestParseAddressList_Malformed(t *testing.T) {
	cases := []string{
		"0xdAC17F958D2ee523a2206206994597C13D831ec7",       // missing chain_id
		"0xdAC17F958D2ee523a2206206994597C13D831ec7,zero",  // bad chain_id
		"0xdAC17F958D2ee523a2206206994597C13D831ec7,-1",    // negative chain_id
		"nothex,1",                                         // bad address
	}
	for _, line := range cases {
		if _, err := ParseAddressList(strings.NewReader(line)); err == nil {
			t.Errorf("expected %q to fail", line)
		}
	}
}
