// Package models defines inventory domain types.
package models

// Item is a stocked inventory line at a distribution site.
type Item struct {
	ID     int64    `json:"id"`
	SiteID int64    `json:"siteId"`
	SKU    string   `json:"sku"`
	Name   string   `json:"name"`
	Tags   []string `json:"tags,omitempty"`
	Qty    int      `json:"qty"`
	Unit   string   `json:"unit,omitempty"`
}
