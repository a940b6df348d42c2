package builder_test

import (
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/require"
	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/sqlexpr"
)

// shop builds customers -> orders -> orders_products -> products ->
// parts_products -> parts, plus an unrelated suppliers entity.
type shop struct {
	engine    *sqlexpr.Engine
	composer  *builder.Composer
	customers *builder.Definition
	orders    *builder.Definition
	products  *builder.Definition
	parts     *builder.Definition
	suppliers *builder.Definition
}

func on(left *sqlexpr.Table, lcol string, right *sqlexpr.Table, rcol string) sqlexpr.Expr {
	return left.Column(lcol).Eq(right.Column(rcol))
}

func newShop(t *testing.T, flavor sqlbuilder.Flavor) *shop {
	t.Helper()

	e := sqlexpr.New(flavor)
	customers := e.Table("customers")
	orders := e.Table("orders")
	products := e.Table("products")
	parts := e.Table("parts")
	ordersProducts := e.Table("orders_products")
	partsProducts := e.Table("parts_products")
	suppliers := e.Table("suppliers")

	customersDef, err := builder.NewDefinition("customers", customers, builder.DefinitionSpec{
		Fields:     []string{"id", "name", "last_contact_at"},
		TextFields: []string{"name"},
		Mappings: []builder.Mapping{
			{Name: "title", Node: e.Concat(customers.Column("name"), e.Value(" title"))},
		},
		Associations: []*builder.Association{
			{
				Table:     orders,
				On:        on(orders, "customer_id", customers, "id"),
				Available: true,
				Associations: []*builder.Association{
					{
						Table: ordersProducts,
						On:    on(orders, "id", ordersProducts, "order_id"),
						Associations: []*builder.Association{
							{
								Table:     products,
								On:        on(products, "id", ordersProducts, "product_id"),
								Available: true,
								Associations: []*builder.Association{
									{
										Table: partsProducts,
										On:    on(products, "id", partsProducts, "product_id"),
										Associations: []*builder.Association{
											{
												Table:     parts,
												On:        on(parts, "id", partsProducts, "part_id"),
												Available: true,
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
		Defaults: builder.Defaults{OrderBy: "name", Direction: "asc"},
	})
	require.NoError(t, err)

	ordersDef, err := builder.NewDefinition("orders", orders, builder.DefinitionSpec{
		Fields: []string{"id", "title", "shipped_at"},
		Associations: []*builder.Association{
			{
				Table:     customers,
				On:        on(customers, "id", orders, "customer_id"),
				Available: true,
			},
			{
				Table: ordersProducts,
				On:    on(ordersProducts, "order_id", orders, "id"),
				Associations: []*builder.Association{
					{
						Table:     products,
						On:        on(products, "id", ordersProducts, "product_id"),
						Available: true,
						Associations: []*builder.Association{
							{
								Table: partsProducts,
								On:    on(products, "id", partsProducts, "product_id"),
								Associations: []*builder.Association{
									{
										Table:     parts,
										On:        on(parts, "id", partsProducts, "part_id"),
										Available: true,
									},
								},
							},
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)

	productsDef, err := builder.NewDefinition("products", products, builder.DefinitionSpec{
		Fields:     []string{"id", "title", "name", "code", "brand", "introduced_at", "discontinued_at"},
		TextFields: []string{"name", "code"},
		Associations: []*builder.Association{
			{
				Table: ordersProducts,
				On:    on(ordersProducts, "product_id", products, "id"),
				Associations: []*builder.Association{
					{
						Table:     orders,
						On:        on(orders, "id", ordersProducts, "order_id"),
						Available: true,
						Associations: []*builder.Association{
							{
								Table:     customers,
								On:        on(customers, "id", orders, "customer_id"),
								Available: true,
							},
						},
					},
				},
			},
			{
				Table: partsProducts,
				On:    on(partsProducts, "product_id", products, "id"),
				Associations: []*builder.Association{
					{
						Table:     parts,
						On:        on(parts, "id", partsProducts, "part_id"),
						Available: true,
					},
				},
			},
		},
	})
	require.NoError(t, err)

	partsDef, err := builder.NewDefinition("parts", parts, builder.DefinitionSpec{
		Fields: []string{"id", "code", "manufacturer"},
		Associations: []*builder.Association{
			{
				Table: partsProducts,
				On:    on(partsProducts, "part_id", parts, "id"),
				Associations: []*builder.Association{
					{
						Table:     products,
						On:        on(products, "id", partsProducts, "product_id"),
						Available: true,
					},
				},
			},
		},
	})
	require.NoError(t, err)

	suppliersDef, err := builder.NewDefinition("suppliers", suppliers, builder.DefinitionSpec{
		Fields: []string{"id", "name"},
	})
	require.NoError(t, err)

	composer, err := builder.NewComposer(customersDef, ordersDef, productsDef, partsDef, suppliersDef)
	require.NoError(t, err)

	return &shop{
		engine:    e,
		composer:  composer,
		customers: customersDef,
		orders:    ordersDef,
		products:  productsDef,
		parts:     partsDef,
		suppliers: suppliersDef,
	}
}

// render interpolates each expression for readable assertions.
func render(exprs []sqlexpr.Expr) []string {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		out[i] = e.String()
	}
	return out
}
