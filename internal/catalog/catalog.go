// Package catalog filters and orders the active product list.
package catalog

import (
	"sort"
	"strings"

	"github.com/fekuna/chronostore/internal/model"
)

type Attribute string

const (
	AttrBrand           Attribute = "brand"
	AttrDiameter        Attribute = "diameter"
	AttrGender          Attribute = "gender"
	AttrCaseShape       Attribute = "case_shape"
	AttrMovement        Attribute = "movement"
	AttrDialColor       Attribute = "dial_color"
	AttrCaseMaterial    Attribute = "case_material"
	AttrGlass           Attribute = "glass"
	AttrStrapMaterial   Attribute = "strap_material"
	AttrClaspType       Attribute = "clasp_type"
	AttrWaterResistance Attribute = "water_resistance"
)

var Attributes = []Attribute{
	AttrBrand, AttrDiameter, AttrGender, AttrCaseShape, AttrMovement, AttrDialColor,
	AttrCaseMaterial, AttrGlass, AttrStrapMaterial, AttrClaspType, AttrWaterResistance,
}

func (a Attribute) valueOf(p model.Product) string {
	switch a {
	case AttrBrand:
		return p.Brand
	case AttrDiameter:
		return p.Diameter
	case AttrGender:
		return p.Gender
	case AttrCaseShape:
		return p.CaseShape
	case AttrMovement:
		return p.Movement
	case AttrDialColor:
		return p.DialColor
	case AttrCaseMaterial:
		return p.CaseMaterial
	case AttrGlass:
		return p.Glass
	case AttrStrapMaterial:
		return p.StrapMaterial
	case AttrClaspType:
		return p.ClaspType
	case AttrWaterResistance:
		return p.WaterResistance
	}
	return ""
}

// Selection maps an attribute to the values a product may have for it.
// An attribute with no values does not constrain the result.
type Selection map[Attribute][]string

type SortKey string

const (
	SortPopular   SortKey = "popular"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNew       SortKey = "new"
	SortDiscount  SortKey = "discount"
)

func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceAsc, SortPriceDesc, SortNew, SortDiscount:
		return k
	}
	return SortPopular
}

// Apply filters out archived products, keeps the ones matching every
// non-empty attribute in sel and orders them by key. Equal keys fall back to
// id descending, so the result is fully determined by the input set.
func Apply(products []model.Product, sel Selection, key SortKey) []model.Product {
	accepted := make(map[Attribute]map[string]struct{}, len(sel))
	for attr, values := range sel {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		accepted[attr] = set
	}

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if !p.Archived && matches(p, accepted) {
			out = append(out, p)
		}
	}

	less := lessFunc(key)
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func matches(p model.Product, accepted map[Attribute]map[string]struct{}) bool {
	for attr, set := range accepted {
		if _, ok := set[attr.valueOf(p)]; !ok {
			return false
		}
	}
	return true
}

func lessFunc(key SortKey) func(a, b model.Product) bool {
	switch key {
	case SortPriceAsc:
		return func(a, b model.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		return func(a, b model.Product) bool { return a.Price > b.Price }
	case SortNew:
		return func(a, b model.Product) bool { return a.IsNew && !b.IsNew }
	case SortDiscount:
		return func(a, b model.Product) bool { return a.DiscountPercent() > b.DiscountPercent() }
	}
	return func(a, b model.Product) bool { return a.ID > b.ID }
}

// Facets counts, per attribute, how many active products carry each value.
func Facets(products []model.Product) map[Attribute]map[string]int {
	out := make(map[Attribute]map[string]int, len(Attributes))
	for _, attr := range Attributes {
		out[attr] = map[string]int{}
	}
	for _, p := range products {
		if p.Archived {
			continue
		}
		for _, attr := range Attributes {
			if v := attr.valueOf(p); v != "" {
				out[attr][v]++
			}
		}
	}
	return out
}
