// Package vrf defines the boundary to the verifiable randomness oracle.
// The draw service issues requests and receives exactly one asynchronous
// delivery per request id.
package vrf

import (
	"context"
	"math/big"
)

// Config carries the oracle request parameters, set at deployment and
// owner-updatable afterwards.
type Config struct {
	SubscriptionID       uint64 `yaml:"subscription_id" json:"subscription_id"`
	KeyHash              string `yaml:"key_hash" json:"key_hash"`
	CallbackGasLimit     uint32 `yaml:"callback_gas_limit" json:"callback_gas_limit"`
	RequestConfirmations uint16 `yaml:"request_confirmations" json:"request_confirmations"`
	NativePayment        bool   `yaml:"native_payment" json:"native_payment"`
}

// Callback receives one random value for a previously issued request.
type Callback func(ctx context.Context, requestID uint64, random *big.Int) error

// Coordinator issues randomness requests. Delivery happens later through
// the callback registered with Subscribe; a request is fulfilled exactly
// once and cannot be cancelled.
type Coordinator interface {
	RequestRandomness(ctx context.Context, cfg Config) (uint64, error)
	Subscribe(cb Callback)
}
