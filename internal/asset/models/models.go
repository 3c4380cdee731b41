// Package models defines the flat records tracked on the ledger. Records are
// serialized as JSON with an assetType discriminator so the store's query
// engine can filter by kind.
package models

import (
	"encoding/json"
	"fmt"
)

// AssetType discriminates the three record kinds on the ledger.
type AssetType string

const (
	AssetTypeRawMaterial  AssetType = "rawMaterial"
	AssetTypeFinishedGood AssetType = "finishedGood"
	AssetTypeOrder        AssetType = "order"
)

// Statuses. Lifecycle per kind:
//   - RawMaterial:  Supplied → AssignedToOrder (via matching only)
//   - FinishedGood: Created → AssignedToOrder (via matching only)
//   - Order:        Ordered → deleted on successful match (no terminal
//     status; the tombstone remains visible in the key's history)
const (
	StatusSupplied        = "Supplied"
	StatusCreated         = "Created"
	StatusOrdered         = "Ordered"
	StatusAssignedToOrder = "AssignedToOrder"
)

// RawMaterial is a supplied lot of input material.
//
// Invariants:
//   - Key must not exist at creation (uniqueness)
//   - Created only by role supplier
//   - Mutated only by the matching engine (ownership transfer + status)
//   - Never deleted
type RawMaterial struct {
	AssetType  AssetType `json:"assetType"`
	Type       string    `json:"type"`
	Quantity   float64   `json:"quantity"`
	Quality    string    `json:"quality"`
	SupplyDate string    `json:"supplyDate"`
	Origin     string    `json:"origin"`
	Status     string    `json:"status"`
	OwnedBy    string    `json:"ownedBy"`
}

// FinishedGood is a manufactured good assembled from raw material lots.
//
// Invariants:
//   - Key must not exist at creation
//   - Created only by role manufacturer
//
// RawMaterialIDs are informational pointers: they are recorded but not
// validated for existence or double consumption. Whole-lot assignment is the
// modeling choice here, not an oversight.
type FinishedGood struct {
	AssetType      AssetType `json:"assetType"`
	Type           string    `json:"type"`
	Quantity       float64   `json:"quantity"`
	RawMaterialIDs []string  `json:"rawMaterialIds"`
	Status         string    `json:"status"`
	OwnedBy        string    `json:"ownedBy"`
}

// Order is a retailer's request for a product.
//
// Invariants:
//   - Key must not exist at creation; the targeted product must exist
//   - Created only by role retailer
//   - Type is copied from the targeted product at creation so candidate
//     filtering can match on it without chasing the reference
//   - Deleted from the store once successfully matched
type Order struct {
	AssetType    AssetType `json:"assetType"`
	ProductID    string    `json:"productId"`
	Type         string    `json:"type"`
	Quantity     float64   `json:"quantity"`
	Status       string    `json:"status"`
	RetailerName string    `json:"retailerName"`
}

// Product is the read-side projection the matching engine needs from either
// a RawMaterial or a FinishedGood record.
type Product struct {
	AssetType AssetType `json:"assetType"`
	Type      string    `json:"type"`
	Quantity  float64   `json:"quantity"`
	Status    string    `json:"status"`
	OwnedBy   string    `json:"ownedBy"`
}

// DecodeProduct projects a serialized RawMaterial or FinishedGood record.
func DecodeProduct(value []byte) (Product, error) {
	var p Product
	if err := json.Unmarshal(value, &p); err != nil {
		return Product{}, fmt.Errorf("decode product record: %w", err)
	}
	return p, nil
}

// DecodeOrder deserializes an order record.
func DecodeOrder(value []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(value, &o); err != nil {
		return Order{}, fmt.Errorf("decode order record: %w", err)
	}
	return o, nil
}

// Reassign rewrites a serialized product record with a new owner and the
// AssignedToOrder status, preserving every other field as stored. Working on
// the raw document keeps kind-specific fields (quality, rawMaterialIds, ...)
// intact without the caller knowing which kind it holds.
func Reassign(value []byte, newOwner string) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(value, &doc); err != nil {
		return nil, fmt.Errorf("decode product record: %w", err)
	}
	doc["ownedBy"] = newOwner
	doc["status"] = StatusAssignedToOrder
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode reassigned product: %w", err)
	}
	return out, nil
}
