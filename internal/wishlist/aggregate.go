package wishlist

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"commerce-service-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength      = 100
	maxProductIdLength = 50
	maxItemNameLength  = 200
	maxImageUrlLength  = 500
)

// Limits bounds the size of a wishlist
type Limits struct {
	MaxItems       int
	MaxSharedUsers int
}

// LimitsFromPolicy extracts wishlist limits from the static policy
func LimitsFromPolicy(p models.Policy) Limits {
	return Limits{MaxItems: p.MaxWishlistItems, MaxSharedUsers: p.MaxSharedUsers}
}

// ItemInput is caller-supplied data for a new wishlist item
type ItemInput struct {
	ProductId string
	Name      string
	Price     decimal.Decimal
	Currency  string
	ImageUrl  string
}

// Changes is the restricted set of fields UpdateFields may touch. Nil means unchanged.
type Changes struct {
	Name       *string
	Visibility *models.Visibility
	IsActive   *bool
}

func (c Changes) empty() bool {
	return c.Name == nil && c.Visibility == nil && c.IsActive == nil
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: wishlist name is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", fmt.Errorf("%w: wishlist name exceeds %d characters", models.ErrInvalidInput, maxNameLength)
	}
	return trimmed, nil
}

func validateVisibility(v models.Visibility) error {
	if !v.Valid() {
		return fmt.Errorf("%w: unknown visibility %q", models.ErrInvalidInput, v)
	}
	return nil
}

// New creates a version 1 wishlist with no items and no shares.
// An empty visibility defaults to private.
func New(userId uuid.UUID, name string, visibility models.Visibility, now time.Time) (*models.Wishlist, error) {
	if userId == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", models.ErrInvalidInput)
	}
	trimmed, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if err := validateVisibility(visibility); err != nil {
		return nil, err
	}

	return &models.Wishlist{
		Id:         uuid.New(),
		UserId:     userId,
		Name:       trimmed,
		Items:      []models.WishlistItem{},
		Visibility: visibility,
		SharedWith: []uuid.UUID{},
		Version:    1,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NewItem validates input and builds an active item not yet attached to a wishlist
func NewItem(in ItemInput, now time.Time) (models.WishlistItem, error) {
	productId := strings.TrimSpace(in.ProductId)
	if productId == "" || len(productId) > maxProductIdLength {
		return models.WishlistItem{}, fmt.Errorf("%w: product_id must be 1-%d characters", models.ErrInvalidInput, maxProductIdLength)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxItemNameLength {
		return models.WishlistItem{}, fmt.Errorf("%w: item name must be 1-%d characters", models.ErrInvalidInput, maxItemNameLength)
	}
	if !in.Price.IsPositive() {
		return models.WishlistItem{}, fmt.Errorf("%w: price must be positive", models.ErrInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return models.WishlistItem{}, fmt.Errorf("%w: invalid currency code %q", models.ErrInvalidInput, in.Currency)
	}
	if len(in.ImageUrl) > maxImageUrlLength {
		return models.WishlistItem{}, fmt.Errorf("%w: image_url exceeds %d characters", models.ErrInvalidInput, maxImageUrlLength)
	}

	return models.WishlistItem{
		Id:        uuid.New(),
		ProductId: productId,
		Name:      name,
		Price:     in.Price,
		Currency:  currency,
		ImageUrl:  in.ImageUrl,
		AddedAt:   now,
		IsActive:  true,
	}, nil
}

// AddItem appends item to w. Product ids are unique among active items.
func AddItem(w *models.Wishlist, item models.WishlistItem, limits Limits, now time.Time) error {
	for _, existing := range w.Items {
		if existing.IsActive && existing.ProductId == item.ProductId {
			return fmt.Errorf("%w: product %s", models.ErrDuplicateItem, item.ProductId)
		}
	}
	if w.ActiveItemCount()+1 > limits.MaxItems {
		return fmt.Errorf("%w: maximum is %d items", models.ErrItemLimitExceeded, limits.MaxItems)
	}

	item.WishlistId = w.Id
	w.Items = append(w.Items, item)
	w.UpdatedAt = now
	w.Version++
	return nil
}

// ShareWith grants read access to userIds. Sharing is additive; there is no unshare.
func ShareWith(w *models.Wishlist, userIds []uuid.UUID, limits Limits, now time.Time) error {
	merged := make(map[uuid.UUID]struct{}, len(w.SharedWith)+len(userIds))
	for _, id := range w.SharedWith {
		merged[id] = struct{}{}
	}
	for _, id := range userIds {
		if id == uuid.Nil {
			return fmt.Errorf("%w: invalid user id in share list", models.ErrInvalidInput)
		}
		merged[id] = struct{}{}
	}
	if len(merged) > limits.MaxSharedUsers {
		return fmt.Errorf("%w: cannot share with more than %d users", models.ErrShareLimitExceeded, limits.MaxSharedUsers)
	}

	shared := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		shared = append(shared, id)
	}
	sort.Slice(shared, func(i, j int) bool { return bytes.Compare(shared[i][:], shared[j][:]) < 0 })

	w.SharedWith = shared
	w.Visibility = models.VisibilityShared
	w.UpdatedAt = now
	w.Version++
	return nil
}

// UpdateFields validates every requested change before applying any of them, then
// bumps the version once regardless of how many fields changed.
func UpdateFields(w *models.Wishlist, changes Changes, now time.Time) error {
	if changes.empty() {
		return fmt.Errorf("%w: no changes requested", models.ErrInvalidInput)
	}

	var name string
	if changes.Name != nil {
		trimmed, err := validateName(*changes.Name)
		if err != nil {
			return err
		}
		name = trimmed
	}
	if changes.Visibility != nil {
		if err := validateVisibility(*changes.Visibility); err != nil {
			return err
		}
	}

	if changes.Name != nil {
		w.Name = name
	}
	if changes.Visibility != nil {
		w.Visibility = *changes.Visibility
	}
	if changes.IsActive != nil {
		w.IsActive = *changes.IsActive
	}
	w.UpdatedAt = now
	w.Version++
	return nil
}
