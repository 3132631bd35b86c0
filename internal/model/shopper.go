package model

const RecentlyViewedLimit = 12

type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type Cart struct {
	Owner string     `json:"owner"`
	Lines []CartLine `json:"lines"`
}

func (c Cart) Key() string { return c.Owner }

func (c Cart) Clone() Cart {
	c.Lines = append([]CartLine(nil), c.Lines...)
	return c
}

// Favorites keeps product ids in the order they were added.
type Favorites struct {
	Owner      string  `json:"owner"`
	ProductIDs []int64 `json:"product_ids"`
}

func (f Favorites) Key() string { return f.Owner }

func (f Favorites) Clone() Favorites {
	f.ProductIDs = append([]int64(nil), f.ProductIDs...)
	return f
}

// RecentlyViewed is most recent first, without duplicates.
type RecentlyViewed struct {
	Owner      string  `json:"owner"`
	ProductIDs []int64 `json:"product_ids"`
}

func (r RecentlyViewed) Key() string { return r.Owner }

func (r RecentlyViewed) Clone() RecentlyViewed {
	r.ProductIDs = append([]int64(nil), r.ProductIDs...)
	return r
}

func (r RecentlyViewed) Push(id int64) RecentlyViewed {
	ids := make([]int64, 0, len(r.ProductIDs)+1)
	ids = append(ids, id)
	for _, v := range r.ProductIDs {
		if v != id && len(ids) < RecentlyViewedLimit {
			ids = append(ids, v)
		}
	}
	r.ProductIDs = ids
	return r
}
