package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
)

// PlaygroundOptions controls how the playground database is generated.
type PlaygroundOptions struct {
	// Seed makes generated orders reproducible. Zero picks a random seed.
	Seed           int64
	ExtraCustomers int
	Orders         int
}

// CreatePlayground writes a fresh e-commerce sample database to path,
// replacing any existing file.
func CreatePlayground(ctx context.Context, path string, opts PlaygroundOptions, logger *zap.Logger) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing database %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if err := RunMigrations(ctx, db, logger); err != nil {
		return err
	}

	if opts.Orders <= 0 {
		opts.Orders = 30
	}
	faker := gofakeit.New(opts.Seed)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	customerCount, err := insertCustomers(ctx, tx, faker, opts.ExtraCustomers)
	if err != nil {
		return err
	}
	if err := insertCatalog(ctx, tx); err != nil {
		return err
	}
	if err := insertOrders(ctx, tx, faker, customerCount, opts.Orders); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Info("playground database created",
		zap.String("path", path),
		zap.Int("customers", customerCount),
		zap.Int("products", len(playgroundProducts)),
		zap.Int("orders", opts.Orders),
	)
	return nil
}

// RunMigrations creates the playground schema on db.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	migrations := []string{
		createCustomersTable,
		createCategoriesTable,
		createProductsTable,
		createOrdersTable,
		createOrderItemsTable,
		createIndexes,
	}

	for i, migration := range migrations {
		logger.Debug("running migration", zap.Int("step", i+1), zap.Int("total", len(migrations)))
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

type playgroundCustomer struct {
	name, email, country, signup string
	active                       bool
}

var playgroundCustomers = []playgroundCustomer{
	{"Alice Johnson", "alice.johnson@email.com", "United States", "2023-01-15", true},
	{"Bob Smith", "bob.smith@email.com", "Canada", "2023-02-20", true},
	{"Charlie Brown", "charlie.brown@email.com", "United Kingdom", "2023-03-10", true},
	{"Diana Prince", "diana.prince@email.com", "Germany", "2023-04-05", true},
	{"Eve Adams", "eve.adams@email.com", "France", "2023-05-12", true},
	{"Frank Castle", "frank.castle@email.com", "United States", "2023-06-18", true},
	{"Grace Hopper", "grace.hopper@email.com", "Australia", "2023-07-22", true},
	{"Henry Ford", "henry.ford@email.com", "United States", "2023-08-30", false},
}

var playgroundCategories = [][2]string{
	{"Electronics", "Electronic devices and accessories"},
	{"Books", "Physical and digital books"},
	{"Clothing", "Apparel and fashion items"},
	{"Home & Garden", "Home improvement and garden supplies"},
	{"Sports", "Sports equipment and outdoor gear"},
}

type playgroundProduct struct {
	categoryID int
	name       string
	price      float64
	stock      int
}

var playgroundProducts = []playgroundProduct{
	{1, "Wireless Headphones", 79.99, 45},
	{1, "Smartphone Stand", 24.99, 120},
	{1, "USB-C Cable", 12.99, 200},
	{1, "Portable Charger", 39.99, 67},
	{1, "Bluetooth Speaker", 59.99, 34},
	{2, "Python Programming Guide", 45.00, 89},
	{2, "Web Development 101", 38.50, 56},
	{2, "Database Design Patterns", 52.00, 23},
	{2, "Clean Code", 42.00, 78},
	{3, "Cotton T-Shirt", 19.99, 150},
	{3, "Denim Jeans", 49.99, 87},
	{3, "Running Shoes", 89.99, 45},
	{3, "Winter Jacket", 129.99, 28},
	{4, "Plant Pot Set", 29.99, 92},
	{4, "LED Desk Lamp", 34.99, 61},
	{4, "Kitchen Knife Set", 79.99, 34},
	{5, "Yoga Mat", 24.99, 103},
	{5, "Dumbbell Set", 89.99, 41},
	{5, "Tennis Racket", 119.99, 22},
	{5, "Water Bottle", 14.99, 156},
}

var orderStatuses = []string{"pending", "shipped", "delivered", "delivered", "delivered", "cancelled"}

func insertCustomers(ctx context.Context, tx *sql.Tx, faker *gofakeit.Faker, extra int) (int, error) {
	const q = `INSERT INTO customers (name, email, country, signup_date, is_active) VALUES (?, ?, ?, ?, ?)`
	for _, c := range playgroundCustomers {
		if _, err := tx.ExecContext(ctx, q, c.name, c.email, c.country, c.signup, c.active); err != nil {
			return 0, fmt.Errorf("insert customer %s: %w", c.email, err)
		}
	}

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < extra; i++ {
		// Numbered emails keep the UNIQUE constraint satisfied.
		email := fmt.Sprintf("%d.%s", i, faker.Email())
		signup := faker.DateRange(start, end).Format("2006-01-02")
		if _, err := tx.ExecContext(ctx, q, faker.Name(), email, faker.Country(), signup, faker.Bool()); err != nil {
			return 0, fmt.Errorf("insert customer %s: %w", email, err)
		}
	}
	return len(playgroundCustomers) + extra, nil
}

func insertCatalog(ctx context.Context, tx *sql.Tx) error {
	for _, c := range playgroundCategories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (name, description) VALUES (?, ?)`, c[0], c[1]); err != nil {
			return fmt.Errorf("insert category %s: %w", c[0], err)
		}
	}
	for _, p := range playgroundProducts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (category_id, name, price, stock_quantity) VALUES (?, ?, ?, ?)`,
			p.categoryID, p.name, p.price, p.stock,
		); err != nil {
			return fmt.Errorf("insert product %s: %w", p.name, err)
		}
	}
	return nil
}

func insertOrders(ctx context.Context, tx *sql.Tx, faker *gofakeit.Faker, customers, orders int) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -90)

	for orderID := 1; orderID <= orders; orderID++ {
		itemCount := faker.Number(1, 4)
		picked := map[int]bool{}
		var total float64

		type item struct {
			productID, quantity int
			price               float64
		}
		items := make([]item, 0, itemCount)
		for len(items) < itemCount {
			productID := faker.Number(1, len(playgroundProducts))
			if picked[productID] {
				continue
			}
			picked[productID] = true
			quantity := faker.Number(1, 3)
			price := playgroundProducts[productID-1].price
			total += price * float64(quantity)
			items = append(items, item{productID, quantity, price})
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, customer_id, order_date, status, total_amount) VALUES (?, ?, ?, ?, ?)`,
			orderID,
			faker.Number(1, customers),
			faker.DateRange(start, end).Format(time.RFC3339),
			faker.RandomString(orderStatuses),
			float64(int(total*100+0.5))/100,
		); err != nil {
			return fmt.Errorf("insert order %d: %w", orderID, err)
		}

		for _, it := range items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
				orderID, it.productID, it.quantity, it.price,
			); err != nil {
				return fmt.Errorf("insert item for order %d: %w", orderID, err)
			}
		}
	}
	return nil
}

const createCustomersTable = `
CREATE TABLE IF NOT EXISTS customers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT UNIQUE NOT NULL,
  country TEXT NOT NULL,
  signup_date DATE NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT 1
);
`

const createCategoriesTable = `
CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  description TEXT
);
`

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  price DECIMAL(10, 2) NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY (category_id) REFERENCES categories (id)
);
`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  customer_id INTEGER NOT NULL,
  order_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  status TEXT NOT NULL CHECK (status IN ('pending', 'shipped', 'delivered', 'cancelled')),
  total_amount DECIMAL(10, 2) NOT NULL,
  FOREIGN KEY (customer_id) REFERENCES customers (id)
);
`

const createOrderItemsTable = `
CREATE TABLE IF NOT EXISTS order_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  unit_price DECIMAL(10, 2) NOT NULL,
  FOREIGN KEY (order_id) REFERENCES orders (id),
  FOREIGN KEY (product_id) REFERENCES products (id)
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);
`
