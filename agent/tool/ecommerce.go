package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

func ecommerceTools(deps Deps) []Definition {
	d := contractx.DomainEcommerce
	return []Definition{
		{
			Name:        ToolGetOrderStatus,
			Domain:      d,
			Description: "Get the current status of an order by order ID.",
			Params:      []Param{{Name: "order_id", Description: "Order ID such as ORD001", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				o, err := deps.Repo.GetOrder(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolGetOrderStatus, err, fmt.Sprintf("Order %s not found. Please check the order ID.", args[0]))
				}
				tracking := o.TrackingNumber
				if tracking == "" {
					tracking = "Not assigned yet"
				}
				return contractx.OK(ToolGetOrderStatus, fmt.Sprintf(
					"Order %s: Status is '%s', Total: %s, Tracking: %s", o.OrderID, o.Status, money(o.TotalAmount), tracking))
			},
		},
		{
			Name:        ToolGetCustomerOrders,
			Domain:      d,
			Description: "Get all orders for a specific customer.",
			Params:      []Param{{Name: "customer_id", Description: "Customer ID such as CUST001", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				orders, err := deps.Repo.ListCustomerOrders(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolGetCustomerOrders, err, "No orders found for this customer.")
				}
				if len(orders) == 0 {
					return contractx.Fail(ToolGetCustomerOrders, contractx.ErrorKindNotFound, "No orders found for this customer.")
				}
				lines := make([]string, 0, len(orders))
				for _, o := range orders {
					lines = append(lines, fmt.Sprintf("Order %s: %s - %s", o.OrderID, o.Status, money(o.TotalAmount)))
				}
				return contractx.OK(ToolGetCustomerOrders, "Your orders:\n"+strings.Join(lines, "\n"))
			},
		},
		{
			Name:        ToolSearchEcommerceKnowledge,
			Domain:      d,
			Description: "Search the e-commerce knowledge base for policies on shipping, returns and cancellations.",
			Params:      []Param{{Name: "query", Description: "What to look for", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				hits, err := deps.Knowledge.Search(ctx, d, args[0], 2)
				if err != nil {
					return knowledgeFailure(ToolSearchEcommerceKnowledge, err)
				}
				if len(hits) == 0 {
					return contractx.OK(ToolSearchEcommerceKnowledge, "No relevant information found in knowledge base.")
				}
				return contractx.OK(ToolSearchEcommerceKnowledge, "Here's what I found: "+strings.Join(hits, "\n"))
			},
		},
		{
			Name:        ToolCheckProductAvailability,
			Domain:      d,
			Description: "Check if a product is available and get its details.",
			Params:      []Param{{Name: "product_id", Description: "Product ID such as PROD001", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				p, err := deps.Repo.GetProduct(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolCheckProductAvailability, err, fmt.Sprintf("Product %s not found.", args[0]))
				}
				availability := "Out of Stock"
				if p.StockQuantity > 0 {
					availability = "In Stock"
				}
				return contractx.OK(ToolCheckProductAvailability, fmt.Sprintf(
					"Product: %s, Price: %s, Status: %s (%d units)", p.Name, money(p.Price), availability, p.StockQuantity))
			},
		},
	}
}
