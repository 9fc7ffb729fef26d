// Command seed loads a small demo data set through the domain services:
// one customer, a 5% sales tax, a stocked product, a service and one
// confirmed sales order ready to invoice.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/app"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/contacts"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/products"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/taxes"
	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
	"github.com/shiv-accounts/shiv-accounts/internal/sales"
)

func main() {
	if app.InTestMode() {
		return
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	if err := seed(context.Background(), cfg, logger); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, logger); err != nil {
		return err
	}
	chart, err := accounting.Bootstrap(ctx, accounting.NewRepository(pool))
	if err != nil {
		return err
	}

	fmt.Println("→ Seeding contacts...")
	customer, err := contacts.NewService(contacts.NewRepository(pool)).Create(ctx, contacts.ContactForm{
		Name:  "Asha Traders",
		Type:  contacts.TypeCustomer,
		Email: "accounts@asha-traders.example",
		City:  "Pune",
		State: "Maharashtra",
	})
	if err != nil {
		return fmt.Errorf("seed contact: %w", err)
	}

	fmt.Println("→ Seeding taxes...")
	gst, err := taxes.NewService(taxes.NewRepository(pool)).Create(ctx, taxes.CreateTaxInput{
		Name:      "GST 5%",
		Method:    taxes.MethodPercentage,
		Rate:      decimal.NewFromInt(5),
		AppliesOn: taxes.AppliesOnSales,
	})
	if err != nil {
		return fmt.Errorf("seed tax: %w", err)
	}

	fmt.Println("→ Seeding products...")
	productService := products.NewService(products.NewRepository(pool))
	chair, err := productService.Create(ctx, products.ProductForm{
		Name:          "Teak Chair",
		Type:          products.TypeGoods,
		SalesPrice:    decimal.NewFromInt(100),
		PurchasePrice: decimal.NewFromInt(60),
		SaleTaxID:     &gst.ID,
	})
	if err != nil {
		return fmt.Errorf("seed goods: %w", err)
	}
	assembly, err := productService.Create(ctx, products.ProductForm{
		Name:       "Assembly",
		Type:       products.TypeService,
		SalesPrice: decimal.NewFromInt(25),
	})
	if err != nil {
		return fmt.Errorf("seed service: %w", err)
	}

	fmt.Println("→ Seeding sales order...")
	salesService := sales.NewService(sales.NewRepository(pool), chart, nil, logger)
	order, err := salesService.CreateSalesOrder(ctx, sales.CreateSalesOrderRequest{
		CustomerID: customer.ID,
		Items: []sales.CreateSalesOrderItemRequest{
			{ProductID: chair.ID, Quantity: decimal.NewFromInt(2), UnitPrice: chair.SalesPrice, TaxID: &gst.ID},
			{ProductID: assembly.ID, Quantity: decimal.NewFromInt(1), UnitPrice: assembly.SalesPrice},
		},
	})
	if err != nil {
		return fmt.Errorf("seed sales order: %w", err)
	}

	fmt.Printf("✓ Seed complete: sales order #%d for %s is ready to invoice\n", order.ID, customer.Name)
	return nil
}
