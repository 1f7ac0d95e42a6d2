// Package models holds the data model shared by every stage of the
// zero-knowledge credit-score pipeline: raw ingestion records, the
// extracted feature vector, the scored result, and the witness handed to
// the Groth16 prover.
package models

import (
	"math/big"
	"time"
)

// Address is a 20-byte account address (EVM-style). It is not interpreted
// as a checksum or ENS name; the core treats it as an opaque field-element
// preimage.
type Address [20]byte

// AnalysisWindow bounds the events a FeatureVector was extracted from.
// GenesisTimestamp is used as Start when Days is nil ("lifetime").
type AnalysisWindow struct {
	Name  string
	Days  *int // nil means "lifetime"
	Start time.Time
	End   time.Time
}

// GenesisTimestamp is the start of a "lifetime" analysis window: the
// Ethereum mainnet genesis block timestamp (2015-07-30 UTC).
var GenesisTimestamp = time.Date(2015, time.July, 30, 0, 0, 0, 0, time.UTC)

// WalletMetadata is produced once per ingestion and re-derived if earlier
// transactions are discovered.
type WalletMetadata struct {
	Address              Address
	FirstSeenBlock       uint64
	FirstSeenTimestamp   time.Time
	CurrentBalanceWei    *big.Int
	CurrentBalanceNative float64
	TransactionCount     uint64
	IngestedAt           time.Time
}

// TransactionRecord is a single on-chain transaction. Hash uniquely keys it
// within a network.
type TransactionRecord struct {
	Hash                string
	Wallet              Address
	BlockNumber         uint64
	Timestamp           time.Time
	From                Address
	To                  *Address // nil for contract creation
	ValueWei            *big.Int
	ValueNative         float64
	GasUsed             *uint64
	GasPriceWei         *big.Int
	Success             bool
	ContractInteraction bool
}

// ProtocolEventType enumerates the DeFi protocol event kinds.
type ProtocolEventType string

const (
	EventDeposit     ProtocolEventType = "deposit"
	EventWithdraw    ProtocolEventType = "withdraw"
	EventBorrow      ProtocolEventType = "borrow"
	EventRepay       ProtocolEventType = "repay"
	EventLiquidation ProtocolEventType = "liquidation"
	EventSwap        ProtocolEventType = "swap"
	EventStake       ProtocolEventType = "stake"
	EventRewards     ProtocolEventType = "rewards"
	EventCollateral  ProtocolEventType = "collateral"
	EventSupply      ProtocolEventType = "supply"
)

// ProtocolEvent is a single DeFi protocol interaction. (TxHash, LogIndex) is
// a unique key within a network.
type ProtocolEvent struct {
	Type            ProtocolEventType
	Wallet          Address
	ProtocolName    string
	ContractAddress Address
	TxHash          string
	BlockNumber     uint64
	Timestamp       time.Time
	Asset           *string
	AmountWei       *big.Int
	LogIndex        uint32
}

// BalanceSnapshot is a point-in-time balance observation. Balance is always
// non-negative.
type BalanceSnapshot struct {
	Wallet        Address
	BlockNumber   uint64
	Timestamp     time.Time
	BalanceWei    *big.Int
	BalanceNative float64
}

// FeatureRecord is the ingress contract: everything the feature extractor
// needs for one wallet on one network. The core performs no I/O to obtain
// it.
type FeatureRecord struct {
	Wallet       WalletMetadata
	Transactions []TransactionRecord
	Events       []ProtocolEvent
	Snapshots    []BalanceSnapshot
	Window       AnalysisWindow
}
