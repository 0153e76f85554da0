package etherscan

import "encoding/json"

// apiEnvelope is the Etherscan v2 response wrapper. Result is a list of
// contract objects on success and a bare string on API-level errors, so it is
// kept raw until the status is known.
type apiEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// sourceResult is one entry of a getsourcecode result.
type sourceResult struct {
	SourceCode           string `json:"SourceCode"`
	ABI                  string `json:"ABI"`
	ContractName         string `json:"ContractName"`
	CompilerVersion      string `json:"CompilerVersion"`
	OptimizationUsed     string `json:"OptimizationUsed"`
	Runs                 string `json:"Runs"`
	ConstructorArguments string `json:"ConstructorArguments"`
	EVMVersion           string `json:"EVMVersion"`
	Library              string `json:"Library"`
	LicenseType          string `json:"LicenseType"`
	Proxy                string `json:"Proxy"`
	Implementation       string `json:"Implementation"`
	SwarmSource          string `json:"SwarmSource"`
}

// isProxy reports whether the result describes a proxy contract with a
// resolvable implementation.
func (r *sourceResult) isProxy() bool {
	return r.Implementation != "" && r.Implementation != "0x"
}

// verified reports whether the result carries verified source code. Etherscan
// answers unverified contracts with status 1 and an empty SourceCode, or with
// the literal "Contract source code not verified" in the ABI field.
func (r *sourceResult) verified() bool {
	return r.SourceCode != "" && r.ABI != notVerifiedABI
}

const notVerifiedABI = "Contract source code not verified"
