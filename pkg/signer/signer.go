// Package signer opens the key that signs dexops transactions: a Ledger device for
// emergency actions or a deployer mnemonic for pool deployment.
package signer

import (
	"fmt"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	"github.com/cosmos/go-bip39"

	"github.com/MANTRA-Chain/mantra-dex/app"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Key names inside the in-memory keyring.
const (
	LedgerKeyName   = "ledger"
	DeployerKeyName = "deployer"
)

// Session is a signing key held for the duration of one run. Close must be called
// on every exit path.
type Session interface {
	// Name is the keyring uid of the key.
	Name() string
	// Address is the bech32 account address.
	Address() string
	AccAddress() sdk.AccAddress
	Keyring() keyring.Keyring
	AccountIndex() uint32
	HDPath() string
	SignMode() signing.SignMode
	Close() error
}

// KeyringSession is a Session backed by an in-memory keyring holding exactly one key.
type KeyringSession struct {
	name     string
	addr     sdk.AccAddress
	bech32   string
	kr       keyring.Keyring
	index    uint32
	hdPath   string
	signMode signing.SignMode

	closeOnce sync.Once
	closeErr  error
}

var _ Session = (*KeyringSession)(nil)

// HDPath returns the cosmos hub derivation path m/44'/118'/0'/0/<index>.
func HDPath(index uint32) string {
	return hd.CreateHDPath(app.CoinType, 0, index).String()
}

// OpenLedger registers the Ledger account at index under prefix. Signing on a Ledger
// only supports SIGN_MODE_LEGACY_AMINO_JSON. The binary must be built with the
// "ledger" tag for the device to be reachable.
func OpenLedger(cdc codec.Codec, prefix string, index uint32) (*KeyringSession, error) {
	kr := keyring.NewInMemory(cdc)

	record, err := kr.SaveLedgerKey(LedgerKeyName, hd.Secp256k1, prefix, app.CoinType, 0, index)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrSigner, "connecting to Ledger device: %v", err)
	}

	return newSession(kr, record, prefix, index, signing.SignMode_SIGN_MODE_LEGACY_AMINO_JSON)
}

// FromMnemonic imports mnemonic at index into an in-memory keyring.
func FromMnemonic(cdc codec.Codec, prefix, mnemonic string, index uint32) (*KeyringSession, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errorsmod.Wrap(types.ErrSigner, "invalid mnemonic")
	}

	kr := keyring.NewInMemory(cdc)
	record, err := kr.NewAccount(DeployerKeyName, mnemonic, keyring.DefaultBIP39Passphrase, HDPath(index), hd.Secp256k1)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrSigner, "importing mnemonic: %v", err)
	}

	return newSession(kr, record, prefix, index, signing.SignMode_SIGN_MODE_DIRECT)
}

func newSession(kr keyring.Keyring, record *keyring.Record, prefix string, index uint32, mode signing.SignMode) (*KeyringSession, error) {
	addr, err := record.GetAddress()
	if err != nil || addr.Empty() {
		return nil, errorsmod.Wrapf(types.ErrNoAccounts, "%s with prefix %q", HDPath(index), prefix)
	}

	bech32, err := address.NewBech32Codec(prefix).BytesToString(addr)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrSigner, "encoding address: %v", err)
	}

	return &KeyringSession{
		name:     record.Name,
		addr:     addr,
		bech32:   bech32,
		kr:       kr,
		index:    index,
		hdPath:   HDPath(index),
		signMode: mode,
	}, nil
}

func (s *KeyringSession) Name() string               { return s.name }
func (s *KeyringSession) Address() string            { return s.bech32 }
func (s *KeyringSession) AccAddress() sdk.AccAddress { return s.addr }
func (s *KeyringSession) Keyring() keyring.Keyring   { return s.kr }
func (s *KeyringSession) AccountIndex() uint32       { return s.index }
func (s *KeyringSession) HDPath() string             { return s.hdPath }
func (s *KeyringSession) SignMode() signing.SignMode { return s.signMode }

// Close removes the key from the keyring. Further signing fails. Safe to call more
// than once.
func (s *KeyringSession) Close() error {
	s.closeOnce.Do(func() {
		if err := s.kr.Delete(s.name); err != nil {
			s.closeErr = fmt.Errorf("releasing %s key: %w", s.name, err)
		}
	})
	return s.closeErr
}
