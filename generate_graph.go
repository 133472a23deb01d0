//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

func main() {
	expenses := []models.Expense{
		{Title: "Shop rent", Amount: decimal.NewFromInt(3000), Category: models.CategoryRent},
		{Title: "Electricity", Amount: decimal.NewFromFloat(450.75), Category: models.CategoryUtilities},
		{Title: "Assistant", Amount: decimal.NewFromInt(2500), Category: models.CategorySalary},
		{Title: "LCD stock", Amount: decimal.NewFromInt(1800), Category: models.CategoryParts},
		{Title: "Tea", Amount: decimal.NewFromInt(120), Category: models.CategoryOther},
	}

	chartData, err := report.ExpenseChart(expenses, "January 2026")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example expense breakdown chart")
}
