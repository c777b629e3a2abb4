package postgres

const (
	schema = `
	CREATE TABLE IF NOT EXISTS purchases (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
		currency CHAR(3) NOT NULL,
		payment_intent_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		collaborative_data JSONB,
		status_reason TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		status_changed_at TIMESTAMPTZ NOT NULL,
		swept_at TIMESTAMPTZ
	);

	ALTER TABLE purchases ADD COLUMN IF NOT EXISTS swept_at TIMESTAMPTZ;

	CREATE INDEX IF NOT EXISTS idx_purchases_user_created ON purchases(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(status);

	CREATE TABLE IF NOT EXISTS wishlists (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		name VARCHAR(100) NOT NULL,
		visibility TEXT NOT NULL,
		shared_with JSONB NOT NULL DEFAULT '[]',
		version BIGINT NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wishlists_user_active ON wishlists(user_id, is_active);

	CREATE TABLE IF NOT EXISTS wishlist_items (
		id UUID PRIMARY KEY,
		wishlist_id UUID NOT NULL REFERENCES wishlists(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id VARCHAR(50) NOT NULL,
		name VARCHAR(200) NOT NULL,
		price NUMERIC(12, 2) NOT NULL,
		currency CHAR(3) NOT NULL,
		image_url VARCHAR(500) NOT NULL DEFAULT '',
		added_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_wishlist_items_wishlist ON wishlist_items(wishlist_id, position);
	`

	// Purchase queries
	purchaseColumns = `
		id::text, user_id::text, amount::text, currency, payment_intent_id, status, metadata,
		collaborative_data, status_reason, created_at, updated_at, status_changed_at`

	queryInsertPurchase = `
		INSERT INTO purchases (
			id, user_id, amount, currency, payment_intent_id, status, metadata,
			collaborative_data, status_reason, created_at, updated_at, status_changed_at
		) VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	queryGetPurchaseById = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE id = $1`

	queryGetPurchaseByIntent = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE payment_intent_id = $1`

	queryLockPurchaseById     = queryGetPurchaseById + ` FOR UPDATE`
	queryLockPurchaseByIntent = queryGetPurchaseByIntent + ` FOR UPDATE`

	queryListPurchases = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	queryListStalePurchases = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE status = ANY($1) AND updated_at < $2 AND (swept_at IS NULL OR swept_at < $2)
		ORDER BY COALESCE(swept_at, updated_at)
		LIMIT $3`

	queryMarkPurchasesSwept = `
		UPDATE purchases
		SET swept_at = $1
		WHERE id = ANY($2::uuid[])`

	queryUpdatePurchase = `
		UPDATE purchases
		SET status = $1, status_reason = $2, metadata = $3, collaborative_data = $4,
		    updated_at = $5, status_changed_at = $6
		WHERE id = $7`

	// Wishlist queries
	wishlistColumns = `
		id::text, user_id::text, name, visibility, shared_with, version, is_active, created_at, updated_at`

	queryInsertWishlist = `
		INSERT INTO wishlists (id, user_id, name, visibility, shared_with, version, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	queryGetActiveWishlist = `
		SELECT ` + wishlistColumns + `
		FROM wishlists
		WHERE id = $1 AND is_active`

	queryListActiveWishlists = `
		SELECT ` + wishlistColumns + `
		FROM wishlists
		WHERE user_id = $1 AND is_active
		ORDER BY created_at`

	queryUpdateWishlist = `
		UPDATE wishlists
		SET name = $1, visibility = $2, shared_with = $3, version = $4, is_active = $5, updated_at = $6
		WHERE id = $7 AND version = $8`

	queryUpsertWishlistItem = `
		INSERT INTO wishlist_items (
			id, wishlist_id, position, product_id, name, price, currency,
			image_url, added_at, updated_at, is_active
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at,
			is_active = EXCLUDED.is_active`

	queryGetWishlistItems = `
		SELECT id::text, wishlist_id::text, product_id, name, price::text, currency,
		       image_url, added_at, updated_at, is_active
		FROM wishlist_items
		WHERE wishlist_id = $1
		ORDER BY position`
)
