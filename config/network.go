package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/joho/godotenv"

	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Supported networks
const (
	NetworkMainnet = "mantra"
	NetworkTestnet = "mantra-testnet"
)

// PoolManagerWasm is the artifact name of the pool manager in deployment files.
const PoolManagerWasm = "pool_manager.wasm"

// Network is the chain configuration of one deployment target. It is built once by
// LoadNetwork and passed by value afterwards.
type Network struct {
	Name    string
	ChainID string
	Denom   string
	Binary  string
	RPC     string

	// Mnemonic of the deployer account. Never logged.
	Mnemonic string

	PoolManagerAddr string
}

type networkFiles struct {
	env        string
	mnemonic   string
	deployment string
}

func filesFor(name string) (networkFiles, error) {
	switch name {
	case NetworkMainnet:
		return networkFiles{
			env:        filepath.Join("deploy_env", "mainnets", "mantra.env"),
			mnemonic:   filepath.Join("deploy_env", "mnemonics", "deployer_mnemonic.txt"),
			deployment: filepath.Join("output", "mantra-1_mantra_dex_contracts.json"),
		}, nil
	case NetworkTestnet:
		return networkFiles{
			env:        filepath.Join("deploy_env", "testnets", "mantra.env"),
			mnemonic:   filepath.Join("deploy_env", "mnemonics", "deployer_mnemonic_testnet.txt"),
			deployment: filepath.Join("output", "mantra-dukong-1_mantra_dex_contracts.json"),
		}, nil
	default:
		return networkFiles{}, errorsmod.Wrapf(types.ErrInvalidNetwork, "%q: use %q or %q", name, NetworkMainnet, NetworkTestnet)
	}
}

// ValidateNetworkName returns ErrInvalidNetwork for anything but the supported names.
func ValidateNetworkName(name string) error {
	_, err := filesFor(name)
	return err
}

// LoadNetwork reads the env file, mnemonic and deployment output of the named network
// from scriptsDir. Values already present in the process environment take precedence
// over the env file, matching dotenv semantics.
func LoadNetwork(scriptsDir, name string) (Network, error) {
	files, err := filesFor(name)
	if err != nil {
		return Network{}, err
	}

	envPath := filepath.Join(scriptsDir, files.env)
	env, err := godotenv.Read(envPath)
	if err != nil {
		return Network{}, wrapFileErr(err, envPath)
	}

	n := Network{
		Name:    name,
		ChainID: lookupEnv(env, "CHAIN_ID"),
		Denom:   lookupEnv(env, "DENOM"),
		Binary:  lookupEnv(env, "BINARY"),
		RPC:     lookupEnv(env, "RPC"),
	}
	if n.ChainID == "" || n.RPC == "" {
		return Network{}, errorsmod.Wrapf(types.ErrInvalidConfig, "%s must define CHAIN_ID and RPC", envPath)
	}

	n.Mnemonic, err = readMnemonic(filepath.Join(scriptsDir, files.mnemonic))
	if err != nil {
		return Network{}, err
	}

	n.PoolManagerAddr, err = ReadContractAddress(filepath.Join(scriptsDir, files.deployment), PoolManagerWasm)
	if err != nil {
		return Network{}, err
	}

	return n, nil
}

func lookupEnv(file map[string]string, key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return file[key]
}

func readMnemonic(path string) (string, error) {
	bz, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", wrapFileErr(err, path)
	}
	mnemonic := strings.TrimSpace(string(bz))
	if mnemonic == "" {
		return "", errorsmod.Wrapf(types.ErrInvalidConfig, "mnemonic file %s is empty", path)
	}
	return mnemonic, nil
}

// Deployment is the contract deployment record written by the deployment scripts.
type Deployment struct {
	Contracts []DeployedContract `json:"contracts"`
}

// DeployedContract is one entry of Deployment.Contracts.
type DeployedContract struct {
	Wasm            string `json:"wasm"`
	CodeID          any    `json:"code_id,omitempty"`
	ContractAddress string `json:"contract_address"`
}

// ReadContractAddress returns the address of the first contract deployed from wasm.
// Later entries for the same wasm are never consulted.
func ReadContractAddress(path, wasm string) (string, error) {
	bz, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", wrapFileErr(err, path)
	}

	var deployment Deployment
	if err := json.Unmarshal(bz, &deployment); err != nil {
		return "", errorsmod.Wrapf(types.ErrInvalidConfig, "parsing deployment file %s: %v", path, err)
	}

	for _, c := range deployment.Contracts {
		if c.Wasm != wasm {
			continue
		}
		if c.ContractAddress == "" {
			return "", errorsmod.Wrapf(types.ErrInvalidConfig, "%s entry in %s has no contract_address", wasm, path)
		}
		return c.ContractAddress, nil
	}
	return "", errorsmod.Wrapf(types.ErrInvalidConfig, "contract address not found for %s in %s", wasm, path)
}

func wrapFileErr(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errorsmod.Wrap(types.ErrConfigNotFound, path)
	}
	return errorsmod.Wrapf(types.ErrInvalidConfig, "reading %s: %v", path, err)
}
