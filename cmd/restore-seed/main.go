// restore-seed is a one-shot tool that restores a small demo data set into
// the four record tables, for local development and dashboard demos.
// Existing rows are replaced.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"
	"os"

	"finance-analytics/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"), db.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Clearing record tables...")
	if _, err := tx.Exec(ctx, `TRUNCATE TABLE payables, receivables, invoices, performa;`); err != nil {
		log.Fatalf("Failed to clear record tables (run verify-db first?): %v", err)
	}

	log.Println("Restoring payable cheques...")
	_, err = tx.Exec(ctx, `
		INSERT INTO payables (row_id, document_number, document_date, description, amount, due_date, beneficiary)
		VALUES
		    (1, 'P-1001', '1403/11/02', 'خرید مواد اولیه', 125000000, '1404/01/15', 'شرکت فولاد'),
		    (2, 'P-1002', '1403/12/10', 'اجاره انبار',      48000000, '1404/02/01', 'املاک نوین'),
		    (3, 'P-1003', '1404/01/20', 'خرید مواد اولیه', 210000000, '1404/03/10', 'شرکت فولاد'),
		    (4, 'P-1004', '1404/02/05', 'حمل و نقل',        16500000, '1404/04/01', 'باربری سریع');
	`)
	if err != nil {
		log.Fatalf("Failed to restore payables: %v", err)
	}

	log.Println("Restoring receivable cheques...")
	_, err = tx.Exec(ctx, `
		INSERT INTO receivables (row_id, document_date, amount, due_date, company_name)
		VALUES
		    (1, '1403/12/01', 180000000, '1404/01/25', 'پخش البرز'),
		    (2, '1404/01/12',  95000000, '1404/02/20', 'صنایع پارس'),
		    (3, '1404/02/02', 260000000, '1404/03/30', 'پخش البرز');
	`)
	if err != nil {
		log.Fatalf("Failed to restore receivables: %v", err)
	}

	log.Println("Restoring pro-forma invoices...")
	_, err = tx.Exec(ctx, `
		INSERT INTO performa (row_id, performa_date, order_code, customer_code, customer_name, status, amount)
		VALUES
		    (1, '1404/01/05', 'OC-501', 'C-01', 'پخش البرز', 'تایید شده', 150000000),
		    (2, '1404/01/18', 'OC-502', 'C-02', 'صنایع پارس', 'تایید شده',  88000000),
		    (3, '1404/02/03', 'OC-503', 'C-03', 'تجارت شرق',  'در انتظار', 42000000);
	`)
	if err != nil {
		log.Fatalf("Failed to restore pro-formas: %v", err)
	}

	log.Println("Restoring sales invoices...")
	_, err = tx.Exec(ctx, `
		INSERT INTO invoices (row_id, invoice_date, customer_code, customer_name, order_code, subtotal, tax, total_amount)
		VALUES
		    (1, '1404/01/09', 'C-01', 'پخش البرز', 'OC-501', 137614679, 12385321, 150000000),
		    (2, '1404/02/07', 'C-02', 'صنایع پارس', 'OC-502',  80733945,  7266055,  88000000);
	`)
	if err != nil {
		log.Fatalf("Failed to restore invoices: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed data restored.")
}
