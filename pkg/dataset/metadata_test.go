package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aomi-labs/db-master/pkg/contract"
)

func TestReadMetadataAddresses(t *testing.T) {
	in := `address,chain,chain_id,name,symbol,is_proxy,implementation_address,protocol,contract_type,version,created_at,updated_at
0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA,ethereum,1,Vault,VLT,false,,Yearn,Vault,v2,0,0
0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb,base,8453,Pool,,true,0xcc,Aave,Pool,,0,0
not-an-address,ethereum,1,Placeholder,,false,,,,,0,0
0xdddddddddddddddddddddddddddddddddddddddd,ethereum,bogus,Box
`
	path := filepath.Join(t.TempDir(), "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte(in), 0o644))

	entries, err := ReadMetadataAddresses(path)
	require.NoError(t, err)

	assert.Equal(t, []contract.AddressEntry{
		{Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ChainID: 1, Protocol: "Yearn"},
		{Address: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", ChainID: 8453, Protocol: "Aave"},
		// bad chain_id falls back to mainnet; short row carries no protocol
		{Address: "0xdddddddddddddddddddddddddddddddddddddddd", ChainID: 1},
	}, entries)
}

func TestReadMetadataAddresses_MissingFile(t *testing.T) {
	_, err := ReadMetadataAddresses(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
