package storefront

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/querycache"
	"jewelry-storefront/internal/transport"
)

func productTags(ps []domain.Product, listID string) []querycache.Tag {
	tags := make([]querycache.Tag, 0, len(ps)+1)
	for _, p := range ps {
		tags = append(tags, querycache.IDTag(TagProducts, p.ID))
	}
	return append(tags, querycache.IDTag(TagProducts, listID))
}

// ProductsQuery lists a page of products.
func (c *Client) ProductsQuery(f domain.ProductFilter) querycache.Query[domain.Page[domain.Product]] {
	f = f.Normalize()
	return querycache.Query[domain.Page[domain.Product]]{
		Endpoint: "getProducts",
		Params:   f,
		Fetch: func(ctx context.Context) (domain.Page[domain.Product], error) {
			q := url.Values{}
			q.Set("page", strconv.Itoa(f.Page))
			q.Set("limit", strconv.Itoa(f.Limit))
			if f.Search != "" {
				q.Set("search", f.Search)
			}
			if f.CategoryID != "" {
				q.Set("categoryId", f.CategoryID)
			}
			var page domain.Page[domain.Product]
			resp, err := c.http.Do(ctx, transport.Request{Path: "/allproducts", Query: q}, &page)
			if err != nil {
				return page, err
			}
			total := len(page.Data)
			if page.Total > 0 {
				total = page.Total
			}
			if n, err := strconv.Atoi(resp.Header.Get(api.TotalCountHeader)); err == nil {
				total = n
			}
			if page.Page == 0 {
				page.Page = f.Page
			}
			if page.Limit == 0 {
				page.Limit = f.Limit
			}
			return domain.NewPage(page.Data, total, page.Page, page.Limit), nil
		},
		Tags: func(p domain.Page[domain.Product], err error) []querycache.Tag {
			return productTags(p.Data, ListID)
		},
	}
}

// ProductQuery fetches one product.
func (c *Client) ProductQuery(id string) querycache.Query[domain.Product] {
	return querycache.Query[domain.Product]{
		Endpoint: "getProductById",
		Params:   id,
		Fetch: func(ctx context.Context) (domain.Product, error) {
			var out api.DataResponse[domain.Product]
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/singleproduct/" + url.PathEscape(id)}, &out)
			return out.Data, err
		},
		Tags: func(domain.Product, error) []querycache.Tag {
			return []querycache.Tag{querycache.IDTag(TagProducts, id)}
		},
	}
}

// ProductsByIDsQuery fetches several products in one request. ids should be
// sorted so equal sets share a cache entry.
func (c *Client) ProductsByIDsQuery(ids []string) querycache.Query[[]domain.Product] {
	return querycache.Query[[]domain.Product]{
		Endpoint: "getProductsByIds",
		Params:   ids,
		Fetch: func(ctx context.Context) ([]domain.Product, error) {
			var out api.DataResponse[[]domain.Product]
			req := transport.Request{Method: http.MethodPost, Path: "/api/products/batch", Body: api.BatchRequest{IDs: ids}}
			_, err := c.http.Do(ctx, req, &out)
			return out.Data, err
		},
		Tags: func(ps []domain.Product, err error) []querycache.Tag {
			return productTags(ps, ListID)
		},
	}
}

// SearchQuery finds products by name or description.
func (c *Client) SearchQuery(term string) querycache.Query[[]domain.Product] {
	return querycache.Query[[]domain.Product]{
		Endpoint: "searchProducts",
		Params:   term,
		Fetch: func(ctx context.Context) ([]domain.Product, error) {
			var out api.DataResponse[[]domain.Product]
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/products/search", Query: url.Values{"q": {term}}}, &out)
			return out.Data, err
		},
		Tags: func([]domain.Product, error) []querycache.Tag {
			return []querycache.Tag{querycache.TypeTag(TagProducts)}
		},
	}
}

// FreshDropsQuery lists the newest products.
func (c *Client) FreshDropsQuery() querycache.Query[[]domain.Product] {
	return querycache.Query[[]domain.Product]{
		Endpoint: "getFreshDrops",
		Fetch: func(ctx context.Context) ([]domain.Product, error) {
			var out api.DataResponse[[]domain.Product]
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/freshdrops"}, &out)
			return out.Data, err
		},
		Tags: func(ps []domain.Product, err error) []querycache.Tag {
			return productTags(ps, FreshDropsID)
		},
	}
}

// ProductColorsQuery lists the color variants of a product.
func (c *Client) ProductColorsQuery(productID string) querycache.Query[[]domain.ProductColor] {
	return querycache.Query[[]domain.ProductColor]{
		Endpoint: "getProductColorsById",
		Params:   productID,
		Fetch: func(ctx context.Context) ([]domain.ProductColor, error) {
			var out api.DataResponse[[]domain.ProductColor]
			_, err := c.http.Do(ctx, transport.Request{Path: "/product/getcolors/" + url.PathEscape(productID)}, &out)
			return out.Data, err
		},
		Tags: func([]domain.ProductColor, error) []querycache.Tag {
			return []querycache.Tag{querycache.IDTag(TagProducts, productID)}
		},
	}
}

// CategoriesQuery lists a page of categories.
func (c *Client) CategoriesQuery(f domain.CategoryFilter) querycache.Query[domain.Page[domain.Category]] {
	f = f.Normalize()
	return querycache.Query[domain.Page[domain.Category]]{
		Endpoint: "getCategories",
		Params:   f,
		Fetch: func(ctx context.Context) (domain.Page[domain.Category], error) {
			q := url.Values{}
			q.Set("page", strconv.Itoa(f.Page))
			q.Set("limit", strconv.Itoa(f.Limit))
			if f.Search != "" {
				q.Set("search", f.Search)
			}
			var page domain.Page[domain.Category]
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/category/getcategory", Query: q}, &page)
			return page, err
		},
		Tags: func(p domain.Page[domain.Category], err error) []querycache.Tag {
			tags := []querycache.Tag{querycache.IDTag(TagCategories, ListID)}
			for _, cat := range p.Data {
				tags = append(tags, querycache.IDTag(TagCategories, cat.ID))
			}
			return tags
		},
	}
}

// CategoryQuery fetches one category.
func (c *Client) CategoryQuery(id string) querycache.Query[domain.Category] {
	return querycache.Query[domain.Category]{
		Endpoint: "getCategoryById",
		Params:   id,
		Fetch: func(ctx context.Context) (domain.Category, error) {
			var out api.DataResponse[domain.Category]
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/category/getcategory/" + url.PathEscape(id)}, &out)
			return out.Data, err
		},
		Tags: func(domain.Category, error) []querycache.Tag {
			return []querycache.Tag{querycache.IDTag(TagCategories, id)}
		},
	}
}

// CategoryProductsQuery lists the products of a category.
func (c *Client) CategoryProductsQuery(categoryID string) querycache.Query[[]domain.Product] {
	return querycache.Query[[]domain.Product]{
		Endpoint: "getProductsByCategory",
		Params:   categoryID,
		Fetch: func(ctx context.Context) ([]domain.Product, error) {
			var out api.DataResponse[[]domain.Product]
			_, err := c.http.Do(ctx, transport.Request{Path: "/api/category/products/category/" + url.PathEscape(categoryID)}, &out)
			return out.Data, err
		},
		Tags: func(ps []domain.Product, err error) []querycache.Tag {
			return append(productTags(ps, ListID), querycache.IDTag(TagCategories, categoryID))
		},
	}
}

func (c *Client) Products(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error) {
	page, err := querycache.Fetch(ctx, c.cache, c.ProductsQuery(f))
	return page, wrap(err, "list products")
}

func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	p, err := querycache.Fetch(ctx, c.cache, c.ProductQuery(id))
	return p, wrap(err, "get product")
}

func (c *Client) ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	ps, err := querycache.Fetch(ctx, c.cache, c.ProductsByIDsQuery(ids))
	return ps, wrap(err, "get products")
}

func (c *Client) Search(ctx context.Context, term string) ([]domain.Product, error) {
	ps, err := querycache.Fetch(ctx, c.cache, c.SearchQuery(term))
	return ps, wrap(err, "search products")
}

func (c *Client) FreshDrops(ctx context.Context) ([]domain.Product, error) {
	ps, err := querycache.Fetch(ctx, c.cache, c.FreshDropsQuery())
	return ps, wrap(err, "fresh drops")
}

func (c *Client) ProductColors(ctx context.Context, productID string) ([]domain.ProductColor, error) {
	cs, err := querycache.Fetch(ctx, c.cache, c.ProductColorsQuery(productID))
	return cs, wrap(err, "product colors")
}

func (c *Client) Categories(ctx context.Context, f domain.CategoryFilter) (domain.Page[domain.Category], error) {
	page, err := querycache.Fetch(ctx, c.cache, c.CategoriesQuery(f))
	return page, wrap(err, "list categories")
}

func (c *Client) Category(ctx context.Context, id string) (domain.Category, error) {
	cat, err := querycache.Fetch(ctx, c.cache, c.CategoryQuery(id))
	return cat, wrap(err, "get category")
}

func (c *Client) CategoryProducts(ctx context.Context, categoryID string) ([]domain.Product, error) {
	ps, err := querycache.Fetch(ctx, c.cache, c.CategoryProductsQuery(categoryID))
	return ps, wrap(err, "category products")
}
