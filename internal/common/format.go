package common

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"commerce-service-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100

	timeLayout = "2006-01-02 15:04:05"
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(w io.Writer, char string, width int) {
	fmt.Fprintln(w, strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(w io.Writer, title string, width int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", width))
	fmt.Fprintln(w, title)
	PrintSeparator(w, "=", width)
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// PrintPurchase writes a purchase with sensitive metadata masked
func PrintPurchase(w io.Writer, p *models.Purchase, processorStatus string) {
	fmt.Fprintf(w, "┌─ Purchase %s\n", p.Id)
	fmt.Fprintf(w, "│  User:     %s\n", p.UserId)
	fmt.Fprintf(w, "│  Amount:   %s %s\n", p.Amount.String(), p.Currency)
	fmt.Fprintf(w, "│  Intent:   %s\n", p.PaymentIntentId)
	fmt.Fprintf(w, "│  Status:   %s (%s)\n", p.Status, p.StatusReason)
	if processorStatus != "" {
		fmt.Fprintf(w, "│  Stripe:   %s\n", processorStatus)
	}
	fmt.Fprintf(w, "│  Changed:  %s\n", p.StatusChangedAt.Format(timeLayout))

	metadata := models.SanitizeMetadata(p.Metadata)
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "│  Meta:     %s = %s\n", k, metadata[k])
	}
	fmt.Fprintf(w, "└  Created:  %s\n", p.CreatedAt.Format(timeLayout))
}

// PrintWishlist writes a wishlist header followed by its active items
func PrintWishlist(w io.Writer, list *models.Wishlist) {
	fmt.Fprintf(w, "\n┌─ Wishlist: %s (v%d, %s)\n", list.Name, list.Version, list.Visibility)
	fmt.Fprintf(w, "│  ID: %s\n", list.Id)
	fmt.Fprintf(w, "│  Owner: %s\n", list.UserId)
	fmt.Fprintf(w, "│  Shared with: %d users\n", len(list.SharedWith))
	fmt.Fprintln(w, "├"+strings.Repeat("─", DefaultWidth-2))

	items := make([]models.WishlistItem, 0, len(list.Items))
	for _, item := range list.Items {
		if item.IsActive {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		fmt.Fprintf(w, "%s(no items)\n", BoxPrefix(true))
		return
	}
	for i, item := range items {
		isLast := i == len(items)-1
		fmt.Fprintf(w, "%s%-20s %12s %s\n", BoxPrefix(isLast), item.ProductId, item.Price.String(), item.Currency)
		fmt.Fprintf(w, "%s  %s (added %s)\n", BoxDetailPrefix(isLast), item.Name, item.AddedAt.Format(timeLayout))
	}
}
