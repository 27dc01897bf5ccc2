package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// DefaultDerivationPath is the first account of the standard Ethereum
// HD derivation path, used when the secret material is a mnemonic.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

var hexKeyRegex = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)

// Wallet holds the single account the workflow runs against.
type Wallet struct {
	key          *ecdsa.PrivateKey
	fromMnemonic bool
}

// New creates a wallet from secret material, detecting its shape: a
// 64-character hex string is treated as a raw private key, anything
// else as a BIP-39 mnemonic derived at DefaultDerivationPath.
func New(secret string) (*Wallet, error) {
	secret = strings.TrimSpace(secret)
	if hexKeyRegex.MatchString(secret) {
		return NewFromPrivateKey(secret)
	}
	return NewFromMnemonic(secret)
}

// NewFromPrivateKey creates a wallet from a private key hex string.
func NewFromPrivateKey(privateKeyHex string) (*Wallet, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Wallet{key: key}, nil
}

// NewFromMnemonic creates a wallet from a BIP-39 mnemonic, deriving the
// first account.
func NewFromMnemonic(mnemonic string) (*Wallet, error) {
	hd, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	path := hdwallet.MustParseDerivationPath(DefaultDerivationPath)
	account, err := hd.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive account: %w", err)
	}

	key, err := hd.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("failed to get derived private key: %w", err)
	}

	return &Wallet{key: key, fromMnemonic: true}, nil
}

// Key returns the account private key.
func (w *Wallet) Key() *ecdsa.PrivateKey {
	return w.key
}

// Address returns the account address.
func (w *Wallet) Address() common.Address {
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

// AddressHex returns the account address as a lower-cased hex string,
// the normalization used when comparing against dApp-rendered fields.
func (w *Wallet) AddressHex() string {
	return strings.ToLower(w.Address().Hex())
}

// FromMnemonic reports whether the wallet was derived from a mnemonic.
func (w *Wallet) FromMnemonic() bool {
	return w.fromMnemonic
}
