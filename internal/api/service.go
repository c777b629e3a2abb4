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

package api

import (
	"context"
	"errors"
	"fmt"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/payment"
	"commerce-service-go/internal/store"
	"commerce-service-go/internal/wishlist"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ CommerceServer = (*CommerceService)(nil)

// CommerceService adapts the wishlist and payment services to the RPC surface
type CommerceService struct {
	store     store.CommerceStore
	wishlists *wishlist.Service
	payments  *payment.Service
	validate  *validator.Validate
}

func NewCommerceService(st store.CommerceStore, wishlists *wishlist.Service, payments *payment.Service) *CommerceService {
	return &CommerceService{
		store:     st,
		wishlists: wishlists,
		payments:  payments,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *CommerceService) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %q", models.ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// parseId parses an id the validator has already checked
func parseId(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", models.ErrInvalidInput, field)
	}
	return id, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a valid decimal", models.ErrInvalidInput, field)
	}
	return amount, nil
}

func (s *CommerceService) HealthCheck(ctx context.Context, _ *HealthCheckRequest) (*HealthCheckResponse, error) {
	if err := s.store.Ping(ctx); err != nil {
		return nil, toStatus(fmt.Errorf("database health check failed: %w", err))
	}
	return &HealthCheckResponse{Status: "ok"}, nil
}

func (s *CommerceService) CreateWishlist(ctx context.Context, req *CreateWishlistRequest) (*WishlistResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	userId, err := parseId("user_id", req.UserId)
	if err != nil {
		return nil, toStatus(err)
	}

	w, err := s.wishlists.Create(ctx, userId, req.Name, models.Visibility(req.Visibility))
	if err != nil {
		return nil, toStatus(err)
	}
	return toWishlistResponse(w), nil
}

func (s *CommerceService) GetWishlist(ctx context.Context, req *GetWishlistRequest) (*WishlistResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	id, err := parseId("wishlist_id", req.WishlistId)
	if err != nil {
		return nil, toStatus(err)
	}

	w, err := s.wishlists.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toWishlistResponse(w), nil
}

func (s *CommerceService) ListWishlists(ctx context.Context, req *ListWishlistsRequest) (*ListWishlistsResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	userId, err := parseId("user_id", req.UserId)
	if err != nil {
		return nil, toStatus(err)
	}

	lists, err := s.wishlists.List(ctx, userId)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ListWishlistsResponse{Wishlists: make([]WishlistResponse, 0, len(lists))}
	for i := range lists {
		resp.Wishlists = append(resp.Wishlists, *toWishlistResponse(&lists[i]))
	}
	return resp, nil
}

func (s *CommerceService) AddWishlistItem(ctx context.Context, req *AddWishlistItemRequest) (*WishlistResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	id, err := parseId("wishlist_id", req.WishlistId)
	if err != nil {
		return nil, toStatus(err)
	}
	price, err := parseAmount("price", req.Price)
	if err != nil {
		return nil, toStatus(err)
	}

	w, err := s.wishlists.AddItem(ctx, id, req.ExpectedVersion, wishlist.ItemInput{
		ProductId: req.ProductId,
		Name:      req.Name,
		Price:     price,
		Currency:  req.Currency,
		ImageUrl:  req.ImageUrl,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toWishlistResponse(w), nil
}

func (s *CommerceService) ShareWishlist(ctx context.Context, req *ShareWishlistRequest) (*WishlistResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	id, err := parseId("wishlist_id", req.WishlistId)
	if err != nil {
		return nil, toStatus(err)
	}
	userIds := make([]uuid.UUID, 0, len(req.UserIds))
	for _, raw := range req.UserIds {
		userId, err := parseId("user_ids", raw)
		if err != nil {
			return nil, toStatus(err)
		}
		userIds = append(userIds, userId)
	}

	w, err := s.wishlists.Share(ctx, id, req.ExpectedVersion, userIds)
	if err != nil {
		return nil, toStatus(err)
	}
	return toWishlistResponse(w), nil
}

func (s *CommerceService) UpdateWishlist(ctx context.Context, req *UpdateWishlistRequest) (*WishlistResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	id, err := parseId("wishlist_id", req.WishlistId)
	if err != nil {
		return nil, toStatus(err)
	}

	changes := wishlist.Changes{Name: req.Name, IsActive: req.IsActive}
	if req.Visibility != nil {
		v := models.Visibility(*req.Visibility)
		changes.Visibility = &v
	}

	w, err := s.wishlists.Update(ctx, id, req.ExpectedVersion, changes)
	if err != nil {
		return nil, toStatus(err)
	}
	return toWishlistResponse(w), nil
}

func (s *CommerceService) DeleteWishlist(ctx context.Context, req *DeleteWishlistRequest) (*DeleteWishlistResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	id, err := parseId("wishlist_id", req.WishlistId)
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.wishlists.Delete(ctx, id, req.ExpectedVersion); err != nil {
		return nil, toStatus(err)
	}
	return &DeleteWishlistResponse{WishlistId: req.WishlistId, Deleted: true}, nil
}

func (s *CommerceService) CreatePaymentIntent(ctx context.Context, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	userId, err := parseId("user_id", req.UserId)
	if err != nil {
		return nil, toStatus(err)
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	collab, err := toCollaborative(req.Collaborative)
	if err != nil {
		return nil, toStatus(err)
	}

	result, err := s.payments.CreatePayment(ctx, payment.CreateParams{
		UserId:        userId,
		Amount:        amount,
		Currency:      req.Currency,
		Metadata:      req.Metadata,
		Collaborative: collab,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	zap.L().Debug("Payment intent created via RPC",
		zap.String("purchase_id", result.Purchase.Id.String()))

	return &PaymentIntentResponse{
		PurchaseId:      result.Purchase.Id.String(),
		PaymentIntentId: result.Purchase.PaymentIntentId,
		ClientSecret:    result.ClientSecret,
		Status:          result.Purchase.Status.String(),
		Amount:          result.Purchase.Amount.String(),
		Currency:        result.Purchase.Currency,
	}, nil
}

func toCollaborative(in *CollaborativeInput) (*models.CollaborativeData, error) {
	if in == nil {
		return nil, nil
	}
	users := make([]uuid.UUID, 0, len(in.SharedUsers))
	for _, raw := range in.SharedUsers {
		id, err := parseId("collaborative.shared_users", raw)
		if err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return &models.CollaborativeData{
		SharedUsers:       users,
		SharedItems:       append([]string(nil), in.SharedItems...),
		TotalParticipants: in.TotalParticipants,
		SharingEnabled:    in.SharingEnabled,
	}, nil
}

func (s *CommerceService) GetPaymentStatus(ctx context.Context, req *GetPaymentStatusRequest) (*PaymentStatusResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	id, err := parseId("purchase_id", req.PurchaseId)
	if err != nil {
		return nil, toStatus(err)
	}

	st, err := s.payments.GetPaymentStatus(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &PaymentStatusResponse{
		Purchase:        toPurchaseResponse(st.Purchase),
		ProcessorStatus: st.ProcessorStatus,
	}, nil
}

func (s *CommerceService) RefundPayment(ctx context.Context, req *RefundPaymentRequest) (*PurchaseResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, toStatus(err)
	}
	id, err := parseId("purchase_id", req.PurchaseId)
	if err != nil {
		return nil, toStatus(err)
	}

	p, err := s.payments.RefundPayment(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := toPurchaseResponse(p)
	return &resp, nil
}
