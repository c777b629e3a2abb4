/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// Purchase queries
	purchaseColumns = `
		id, user_id, amount, currency, payment_intent_id, status, metadata,
		collaborative_data, status_reason, created_at, updated_at, status_changed_at`

	queryInsertPurchase = `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPurchaseById = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE id = ?`

	queryGetPurchaseByIntent = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE payment_intent_id = ?`

	queryListPurchases = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	// queryListStalePurchasesFmt takes the status placeholder list via fmt.
	// Rows are ordered by when they were last looked at, so unchanged rows
	// rotate to the back instead of filling every batch.
	queryListStalePurchasesFmt = `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE status IN (%s) AND updated_at < ? AND (swept_at IS NULL OR swept_at < ?)
		ORDER BY COALESCE(swept_at, updated_at)
		LIMIT ?`

	queryMarkPurchaseSwept = `
		UPDATE purchases
		SET swept_at = ?
		WHERE id = ?`

	queryUpdatePurchase = `
		UPDATE purchases
		SET status = ?, status_reason = ?, metadata = ?, collaborative_data = ?,
		    updated_at = ?, status_changed_at = ?
		WHERE id = ?`

	// Wishlist queries
	wishlistColumns = `
		id, user_id, name, visibility, shared_with, version, is_active, created_at, updated_at`

	queryInsertWishlist = `
		INSERT INTO wishlists (` + wishlistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetActiveWishlist = `
		SELECT ` + wishlistColumns + `
		FROM wishlists
		WHERE id = ? AND is_active = 1`

	queryListActiveWishlists = `
		SELECT ` + wishlistColumns + `
		FROM wishlists
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at`

	queryUpdateWishlist = `
		UPDATE wishlists
		SET name = ?, visibility = ?, shared_with = ?, version = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND version = ?`

	// Wishlist item queries
	queryUpsertWishlistItem = `
		INSERT INTO wishlist_items (
			id, wishlist_id, position, product_id, name, price, currency,
			image_url, added_at, updated_at, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			currency = excluded.currency,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at,
			is_active = excluded.is_active`

	queryGetWishlistItems = `
		SELECT id, wishlist_id, product_id, name, price, currency, image_url, added_at, updated_at, is_active
		FROM wishlist_items
		WHERE wishlist_id = ?
		ORDER BY position`
)
