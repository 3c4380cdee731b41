package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReassign(t *testing.T) {
	original := []byte(`{
		"assetType": "rawMaterial",
		"type": "cotton",
		"quantity": 100,
		"quality": "A",
		"supplyDate": "2024-03-01",
		"origin": "Gujarat",
		"status": "Supplied",
		"ownedBy": "acme-supplies"
	}`)

	reassigned, err := Reassign(original, "mainstreet")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(reassigned, &doc))
	assert.Equal(t, "mainstreet", doc["ownedBy"])
	assert.Equal(t, StatusAssignedToOrder, doc["status"])
	// Kind-specific fields survive the rewrite untouched.
	assert.Equal(t, "A", doc["quality"])
	assert.Equal(t, "Gujarat", doc["origin"])
	assert.Equal(t, float64(100), doc["quantity"])
}

func TestReassignPreservesUnknownFields(t *testing.T) {
	original := []byte(`{"assetType":"finishedGood","batchNote":"rush job","ownedBy":"stitchworks"}`)

	reassigned, err := Reassign(original, "mainstreet")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(reassigned, &doc))
	assert.Equal(t, "rush job", doc["batchNote"])
}

func TestReassignRejectsInvalidJSON(t *testing.T) {
	_, err := Reassign([]byte(`not json`), "mainstreet")
	assert.Error(t, err)
}

func TestDecodeProduct(t *testing.T) {
	value := []byte(`{"assetType":"finishedGood","type":"summer-dress","quantity":20,"status":"Created","ownedBy":"stitchworks","rawMaterialIds":["RM1"]}`)
	product, err := DecodeProduct(value)
	require.NoError(t, err)
	assert.Equal(t, AssetTypeFinishedGood, product.AssetType)
	assert.Equal(t, "summer-dress", product.Type)
	assert.Equal(t, float64(20), product.Quantity)
	assert.Equal(t, StatusCreated, product.Status)
}

func TestDecodeOrder(t *testing.T) {
	value := []byte(`{"assetType":"order","productId":"RM1","type":"cotton","quantity":50,"status":"Ordered","retailerName":"mainstreet"}`)
	order, err := DecodeOrder(value)
	require.NoError(t, err)
	assert.Equal(t, "RM1", order.ProductID)
	assert.Equal(t, "mainstreet", order.RetailerName)
}
