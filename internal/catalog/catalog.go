// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package catalog loads the static product catalog bundled with the
// application: a read-only mapping of product id to attribute name/value
// pairs, read once at startup.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// Attribute names the query layer and the reconciliation pass rely on.
const (
	AttrDisplayName = "display_name"
	AttrDescription = "description"

	// AttrPurchasedBeforeVersion gates a product on a grandfather grant:
	// installations originally purchased strictly before this app version
	// get the product without a transaction.
	AttrPurchasedBeforeVersion = "purchased_before_version"
)

// Catalog is an immutable product id -> attribute map built once at load
// time. The zero value is a valid empty catalog.
type Catalog struct {
	products map[string]map[string]string
}

// Load reads the catalog JSON file at path. An absent file yields an empty
// catalog, not an error; a present but malformed file is an error.
//
// Expected shape:
//
//	{
//	  "coffee.basic": {
//	    "display_name": "Basic Coffee",
//	    "description": "One cup a day",
//	    "purchased_before_version": "2.0"
//	  }
//	}
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{}, nil
		}
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var products map[string]map[string]string
	if err = json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}

	return &Catalog{products: products}, nil
}

// Attribute returns the named attribute of productID, or fallback when the
// product or the attribute is missing. Missing metadata is a contract, not
// an error.
func (c *Catalog) Attribute(name, productID, fallback string) string {
	attrs, ok := c.products[productID]
	if !ok {
		return fallback
	}
	value, ok := attrs[name]
	if !ok {
		return fallback
	}
	return value
}

// Snapshot projects a verified transaction's product into the minimal
// serializable record the entitlement vault stores. Products absent from the
// catalog still project, with empty display fields.
func (c *Catalog) Snapshot(productID string, productType models.ProductType) models.PurchasedProductSnapshot {
	return models.PurchasedProductSnapshot{
		ID:          productID,
		Type:        productType,
		DisplayName: c.Attribute(AttrDisplayName, productID, ""),
		Description: c.Attribute(AttrDescription, productID, ""),
	}
}
