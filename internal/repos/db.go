package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// DriverFor picks the database/sql driver for a DSN: postgres URLs go to
// lib/pq, everything else is treated as a SQLite file or ":memory:".
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	driver := DriverFor(dsn)
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == "sqlite" {
		// one connection keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	if err := ensureSchema(db); err != nil {
		return nil, errors.Wrap(err, "ensure schema")
	}
	if err := seedCatalog(db); err != nil {
		return nil, errors.Wrap(err, "seed catalog")
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, errors.Wrap(err, "seed users")
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  style_count INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  original_price NUMERIC,
  badge TEXT NOT NULL DEFAULT '',
  rating NUMERIC NOT NULL DEFAULT 0,
  reviews INTEGER NOT NULL DEFAULT 0,
  sizes_json TEXT NOT NULL DEFAULT '[]',
  colors_json TEXT NOT NULL DEFAULT '[]',
  featured INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_featured ON products(featured);

-- Product images; lowest position is the primary image
CREATE TABLE IF NOT EXISTS product_images(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  image_url TEXT NOT NULL,
  slot TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_product_images_product ON product_images(product_id, position);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Cart lines; size/color are '' when not chosen so the key stays comparable
CREATE TABLE IF NOT EXISTS cart_items(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  UNIQUE (user_id, product_id, size, color)
);
CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id);

-- Wishlists
CREATE TABLE IF NOT EXISTS wishlist_items(
  user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (user_id, product_id)
);
`
	if db.DriverName() == "sqlite" {
		schema = "PRAGMA foreign_keys = ON;\n" + schema
	}
	_, err := db.Exec(schema)
	return err
}

// seedCatalog inserts the storefront categories and products when missing.
// Safe to run on every startup (idempotent).
func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	zap.S().Info("[seed] inserting storefront categories/products/images")

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`INSERT INTO categories(id,name,description,style_count) VALUES
		  ('premium-sneakers','Premium Sneakers','Comfort meets street style',120),
		  ('formal-collection','Formal Collection','Crafted for the boardroom',85),
		  ('sport-performance','Sport Performance','Built to move',95),
		  ('luxury-sandals','Luxury Sandals','Handcrafted summer luxury',65),
		  ('limited-edition','Limited Edition','Rare drops, few pairs',12)`,

		`INSERT INTO products(id,category_id,name,description,price,original_price,badge,rating,reviews,sizes_json,colors_json,featured) VALUES
		  ('aeroflex-knit-pro','premium-sneakers','AeroFlex Knit Pro','Breathable knit upper on a cushioned sole.',285,320,'Bestseller',4.9,156,
		   '["IND 6","IND 6.5","IND 7","IND 7.5","IND 8"]',
		   '[{"id":"blue","name":"Sky Blue"},{"id":"green","name":"Forest Green"},{"id":"red","name":"Crimson Red"}]',1),
		  ('comfortslip-elite','premium-sneakers','ComfortSlip Elite','Slip-on sneaker with memory foam insole.',275,NULL,'New',4.8,89,
		   '["IND 6","IND 6.5","IND 7","IND 7.5","IND 8"]',
		   '[{"id":"pink","name":"Blush Pink"}]',1),
		  ('heritage-craft-sandals','luxury-sandals','Heritage Craft Sandals','Hand-embroidered traditional sandals.',265,300,'Artisan',4.7,203,
		   '["IND 6","IND 7","IND 8"]','[]',1),
		  ('sparkle-comfort-slippers','luxury-sandals','Sparkle Comfort Slippers','Soft everyday slippers with a sparkle strap.',250,NULL,'Popular',4.6,124,
		   '[]','[]',1)`,

		`INSERT INTO product_images(id,product_id,image_url,slot,position) VALUES
		  ('img-aeroflex-main','aeroflex-knit-pro','products/aeroflex-knit-pro/main.jpg','Main Image',0),
		  ('img-comfortslip-main','comfortslip-elite','products/comfortslip-elite/main.jpg','Main Image',0),
		  ('img-heritage-main','heritage-craft-sandals','products/heritage-craft-sandals/main.jpg','Main Image',0),
		  ('img-sparkle-main','sparkle-comfort-slippers','products/sparkle-comfort-slippers/main.jpg','Main Image',0)`,
	}
	for _, q := range stmts {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures demo USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-sarah", "sarah@murlie.test", "Sarah", "USER", "Passw0rd!"),
		mk("u-michael", "michael@murlie.test", "Michael", "USER", "Passw0rd!"),
		mk("u-admin", "admin@murlie.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`), x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
