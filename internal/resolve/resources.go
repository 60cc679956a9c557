package resolve

import "strings"

// Resource is a collection the CLI knows how to list.
type Resource struct {
	Name    string
	Path    string
	Aliases []string
}

// Resources are the collections reachable by `beyond list`.
var Resources = []Resource{
	{Name: "products", Path: "/products", Aliases: []string{"product"}},
	{Name: "orders", Path: "/orders", Aliases: []string{"order"}},
	{Name: "categories", Path: "/categories", Aliases: []string{"category"}},
	{Name: "webhook-subscriptions", Path: "/webhook-subscriptions", Aliases: []string{"webhooks", "webhook"}},
	{Name: "customers", Path: "/customers", Aliases: []string{"customer"}},
	{Name: "variations", Path: "/variations", Aliases: []string{"variation"}},
	{Name: "product-attribute-definitions", Path: "/product-attribute-definitions", Aliases: []string{"attributes"}},
	{Name: "payment-methods", Path: "/payment-methods", Aliases: []string{"payments"}},
	{Name: "shipping-zones", Path: "/shipping-zones", Aliases: []string{"shipping"}},
	{Name: "newsletter-campaigns", Path: "/newsletter-campaigns", Aliases: []string{"newsletters"}},
}

// LookupResource resolves name (or an alias, or a close fuzzy match) to a
// known resource. Errors are *NotFoundError or *AmbiguousError.
func LookupResource(name string) (Resource, error) {
	items := make([]Named, 0, len(Resources)*2)
	byPath := make(map[string]Resource, len(Resources))
	for _, r := range Resources {
		byPath[r.Path] = r
		items = append(items, Named{ID: r.Path, Name: r.Name})
		for _, alias := range r.Aliases {
			items = append(items, Named{ID: r.Path, Name: alias})
		}
	}

	path, err := FuzzyMatch(strings.TrimPrefix(name, "/"), items)
	if err != nil {
		return Resource{}, err
	}
	return byPath[path], nil
}

// ResourceNames lists the canonical resource names.
func ResourceNames() []string {
	names := make([]string, len(Resources))
	for i, r := range Resources {
		names[i] = r.Name
	}
	return names
}
