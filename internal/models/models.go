// Package models maps InvenTree model types to their API endpoints and the
// web UI locations of individual records.
package models

import (
	"fmt"
	"sort"
	"strings"
)

// ModelType names an InvenTree model.
type ModelType string

const (
	Part          ModelType = "part"
	PartCategory  ModelType = "partcategory"
	StockItem     ModelType = "stockitem"
	StockLocation ModelType = "stocklocation"
	Company       ModelType = "company"
	PurchaseOrder ModelType = "purchaseorder"
	SalesOrder    ModelType = "salesorder"
	BuildOrder    ModelType = "build"
	User          ModelType = "user"
)

// WebPrefix is where the InvenTree web UI is mounted.
const WebPrefix = "/web"

// Info describes one model type.
type Info struct {
	Label      string
	LabelMulti string
	APIPath    string
	DetailPath string
}

var registry = map[ModelType]Info{
	Part: {
		Label: "Part", LabelMulti: "Parts",
		APIPath: "/api/part/", DetailPath: "/part/:pk/",
	},
	PartCategory: {
		Label: "Part Category", LabelMulti: "Part Categories",
		APIPath: "/api/part/category/", DetailPath: "/part/category/:pk/",
	},
	StockItem: {
		Label: "Stock Item", LabelMulti: "Stock Items",
		APIPath: "/api/stock/", DetailPath: "/stock/item/:pk/",
	},
	StockLocation: {
		Label: "Stock Location", LabelMulti: "Stock Locations",
		APIPath: "/api/stock/location/", DetailPath: "/stock/location/:pk/",
	},
	Company: {
		Label: "Company", LabelMulti: "Companies",
		APIPath: "/api/company/", DetailPath: "/company/:pk/",
	},
	PurchaseOrder: {
		Label: "Purchase Order", LabelMulti: "Purchase Orders",
		APIPath: "/api/order/po/", DetailPath: "/purchasing/purchase-order/:pk/",
	},
	SalesOrder: {
		Label: "Sales Order", LabelMulti: "Sales Orders",
		APIPath: "/api/order/so/", DetailPath: "/sales/sales-order/:pk/",
	},
	BuildOrder: {
		Label: "Build Order", LabelMulti: "Build Orders",
		APIPath: "/api/build/", DetailPath: "/manufacturing/build-order/:pk/",
	},
	User: {
		Label: "User", LabelMulti: "Users",
		APIPath: "/api/user/", DetailPath: "/core/user/:pk/",
	},
}

// Lookup returns the registered information for a model type.
func Lookup(m ModelType) (Info, bool) {
	info, ok := registry[ModelType(strings.ToLower(string(m)))]
	return info, ok
}

// Types returns all known model types, sorted.
func Types() []ModelType {
	rv := make([]ModelType, 0, len(registry))
	for m := range registry {
		rv = append(rv, m)
	}
	sort.Slice(rv, func(i, j int) bool { return rv[i] < rv[j] })
	return rv
}

// DetailPath resolves the web UI location of a single record.
func DetailPath(m ModelType, pk any) (string, error) {
	info, ok := Lookup(m)
	if !ok {
		return "", fmt.Errorf("unknown model type %q", m)
	}

	id := strings.TrimSpace(fmt.Sprint(pk))
	if pk == nil || id == "" {
		return "", fmt.Errorf("missing primary key for %s", m)
	}

	return WebPrefix + strings.Replace(info.DetailPath, ":pk", id, 1), nil
}

// DetailURL joins the detail path of a record onto the server base URL.
func DetailURL(baseURL string, m ModelType, pk any) (string, error) {
	path, err := DetailPath(m, pk)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + path, nil
}

// APIDetailPath returns the API path of a single record.
func APIDetailPath(m ModelType, pk any) (string, error) {
	info, ok := Lookup(m)
	if !ok {
		return "", fmt.Errorf("unknown model type %q", m)
	}
	return fmt.Sprintf("%s%v/", info.APIPath, pk), nil
}
