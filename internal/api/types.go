package api

import (
	"time"

	"commerce-service-go/internal/models"
)

type CreateWishlistRequest struct {
	UserId     string `json:"user_id" validate:"required,uuid"`
	Name       string `json:"name" validate:"required"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=private shared public"`
}

type GetWishlistRequest struct {
	WishlistId string `json:"wishlist_id" validate:"required,uuid"`
}

type ListWishlistsRequest struct {
	UserId string `json:"user_id" validate:"required,uuid"`
}

type AddWishlistItemRequest struct {
	WishlistId      string `json:"wishlist_id" validate:"required,uuid"`
	ExpectedVersion int64  `json:"expected_version" validate:"min=1"`
	ProductId       string `json:"product_id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Price           string `json:"price" validate:"required"`
	Currency        string `json:"currency" validate:"required,len=3"`
	ImageUrl        string `json:"image_url" validate:"omitempty,url"`
}

type ShareWishlistRequest struct {
	WishlistId      string   `json:"wishlist_id" validate:"required,uuid"`
	ExpectedVersion int64    `json:"expected_version" validate:"min=1"`
	UserIds         []string `json:"user_ids" validate:"required,min=1,dive,uuid"`
}

type UpdateWishlistRequest struct {
	WishlistId      string  `json:"wishlist_id" validate:"required,uuid"`
	ExpectedVersion int64   `json:"expected_version" validate:"min=1"`
	Name            *string `json:"name,omitempty"`
	Visibility      *string `json:"visibility,omitempty" validate:"omitempty,oneof=private shared public"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

type DeleteWishlistRequest struct {
	WishlistId      string `json:"wishlist_id" validate:"required,uuid"`
	ExpectedVersion int64  `json:"expected_version" validate:"min=1"`
}

type DeleteWishlistResponse struct {
	WishlistId string `json:"wishlist_id"`
	Deleted    bool   `json:"deleted"`
}

type WishlistItemResponse struct {
	Id        string `json:"id"`
	ProductId string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	ImageUrl  string `json:"image_url,omitempty"`
	AddedAt   string `json:"added_at"`
	IsActive  bool   `json:"is_active"`
}

type WishlistResponse struct {
	Id         string                 `json:"id"`
	UserId     string                 `json:"user_id"`
	Name       string                 `json:"name"`
	Visibility string                 `json:"visibility"`
	SharedWith []string               `json:"shared_with"`
	Items      []WishlistItemResponse `json:"items"`
	Version    int64                  `json:"version"`
	IsActive   bool                   `json:"is_active"`
	CreatedAt  string                 `json:"created_at"`
	UpdatedAt  string                 `json:"updated_at"`
}

type ListWishlistsResponse struct {
	Wishlists []WishlistResponse `json:"wishlists"`
}

type CollaborativeInput struct {
	SharedUsers       []string `json:"shared_users" validate:"dive,uuid"`
	SharedItems       []string `json:"shared_items"`
	TotalParticipants int      `json:"total_participants" validate:"min=0"`
	SharingEnabled    bool     `json:"sharing_enabled"`
}

type CreatePaymentIntentRequest struct {
	UserId        string              `json:"user_id" validate:"required,uuid"`
	Amount        string              `json:"amount" validate:"required"`
	Currency      string              `json:"currency" validate:"required,len=3"`
	Metadata      map[string]string   `json:"metadata,omitempty"`
	Collaborative *CollaborativeInput `json:"collaborative,omitempty"`
}

type PaymentIntentResponse struct {
	PurchaseId      string `json:"purchase_id"`
	PaymentIntentId string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Status          string `json:"status"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

type GetPaymentStatusRequest struct {
	PurchaseId string `json:"purchase_id" validate:"required,uuid"`
}

type RefundPaymentRequest struct {
	PurchaseId string `json:"purchase_id" validate:"required,uuid"`
}

type PurchaseResponse struct {
	Id              string                       `json:"id"`
	UserId          string                       `json:"user_id"`
	Amount          string                       `json:"amount"`
	Currency        string                       `json:"currency"`
	PaymentIntentId string                       `json:"payment_intent_id"`
	Status          string                       `json:"status"`
	StatusReason    string                       `json:"status_reason"`
	Metadata        map[string]string            `json:"metadata,omitempty"`
	Collaborative   *models.CollaborativeSummary `json:"collaborative,omitempty"`
	CreatedAt       string                       `json:"created_at"`
	UpdatedAt       string                       `json:"updated_at"`
	StatusChangedAt string                       `json:"status_changed_at"`
}

type PaymentStatusResponse struct {
	Purchase        PurchaseResponse `json:"purchase"`
	ProcessorStatus string           `json:"processor_status,omitempty"`
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct {
	Status string `json:"status"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toWishlistResponse(w *models.Wishlist) *WishlistResponse {
	resp := &WishlistResponse{
		Id:         w.Id.String(),
		UserId:     w.UserId.String(),
		Name:       w.Name,
		Visibility: string(w.Visibility),
		SharedWith: make([]string, len(w.SharedWith)),
		Items:      make([]WishlistItemResponse, 0, len(w.Items)),
		Version:    w.Version,
		IsActive:   w.IsActive,
		CreatedAt:  formatTime(w.CreatedAt),
		UpdatedAt:  formatTime(w.UpdatedAt),
	}
	for i, id := range w.SharedWith {
		resp.SharedWith[i] = id.String()
	}
	for _, item := range w.Items {
		resp.Items = append(resp.Items, WishlistItemResponse{
			Id:        item.Id.String(),
			ProductId: item.ProductId,
			Name:      item.Name,
			Price:     item.Price.String(),
			Currency:  item.Currency,
			ImageUrl:  item.ImageUrl,
			AddedAt:   formatTime(item.AddedAt),
			IsActive:  item.IsActive,
		})
	}
	return resp
}

func toPurchaseResponse(p *models.Purchase) PurchaseResponse {
	return PurchaseResponse{
		Id:              p.Id.String(),
		UserId:          p.UserId.String(),
		Amount:          p.Amount.String(),
		Currency:        p.Currency,
		PaymentIntentId: p.PaymentIntentId,
		Status:          p.Status.String(),
		StatusReason:    p.StatusReason,
		Metadata:        models.SanitizeMetadata(p.Metadata),
		Collaborative:   p.Collaborative.Summary(),
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
		StatusChangedAt: formatTime(p.StatusChangedAt),
	}
}
