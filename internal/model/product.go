// Package model contains the catalog data records.
package model

import (
	"encoding/json"
	"slices"
)

// Product is a catalog item, either fetched from the remote catalog or created locally.
type Product struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
	IsLiked     bool     `json:"isLiked"`
	IsCustom    bool     `json:"isCustom"`
}

// Clone returns a copy that shares no memory with p.
func (p Product) Clone() Product {
	p.Images = slices.Clone(p.Images)
	return p
}

// MarshalJSON encodes a missing image list as an empty array.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	out := product(p)
	if out.Images == nil {
		out.Images = []string{}
	}
	return json.Marshal(out)
}

// ProductPatch is a partial update. Nil fields are left untouched on merge.
// Present fields are validated with the same bounds as a full product.
type ProductPatch struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Brand       *string  `json:"brand,omitempty" validate:"omitempty,min=1"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1"`
	Thumbnail   *string  `json:"thumbnail,omitempty" validate:"omitempty,url"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	IsLiked     *bool    `json:"isLiked,omitempty"`
	IsCustom    *bool    `json:"isCustom,omitempty"`
}

// Apply merges the non-nil fields of patch over p and returns the result.
func (patch ProductPatch) Apply(p Product) Product {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Thumbnail != nil {
		p.Thumbnail = *patch.Thumbnail
	}
	if patch.Images != nil {
		p.Images = slices.Clone(patch.Images)
	}
	if patch.IsLiked != nil {
		p.IsLiked = *patch.IsLiked
	}
	if patch.IsCustom != nil {
		p.IsCustom = *patch.IsCustom
	}
	return p
}

// ProductsResponse is the envelope returned by the remote catalog.
type ProductsResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}
