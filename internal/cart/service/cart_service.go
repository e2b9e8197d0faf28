package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/obinna-o/go_marketgate/internal/cart/cache"
	"github.com/obinna-o/go_marketgate/internal/cart/domain"
	"github.com/obinna-o/go_marketgate/internal/cart/repository"
	"golang.org/x/sync/singleflight"
)

// ErrSessionRequired rejects cart mutations attempted before a session id
// exists. Callers must initialize a session first.
var ErrSessionRequired = errors.New("session not initialized")

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

type Repo interface {
	repository.CartRepository
	repository.WishlistRepository
}

type CartService struct {
	repo  Repo
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(repo Repo, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) {
			// no cart yet for this session, present an empty one
			return &domain.Cart{
				SessionID: sessionID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), sessionID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	if err := s.repo.AddItem(ctx, sessionID, item); err != nil {
		log.Printf("repo add item error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID string, quantity int) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if err := s.repo.UpdateItemQuantity(ctx, sessionID, productID, quantity); err != nil {
		log.Printf("repo update item quantity error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	if err := s.repo.RemoveItem(ctx, sessionID, productID); err != nil {
		log.Printf("repo remove item error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

// ClearCart empties the session's cart. Clearing an already-empty cart is a
// success, so post-checkout reconciliation can run twice without erroring.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	err := s.repo.DeleteCart(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

// Totals prices the cart with the coupon applied. Unknown codes price at
// full rate rather than erroring.
func (s *CartService) Totals(ctx context.Context, sessionID string, coupon string) (*domain.Pricing, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pricing := cart.Totals(coupon)
	return &pricing, nil
}

func (s *CartService) GetWishlist(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	wl, err := s.repo.GetWishlist(ctx, sessionID)
	if err != nil && errors.Is(err, repository.ErrCartNotFound) {
		return &domain.Wishlist{SessionID: sessionID}, nil
	}
	if err != nil {
		return nil, err
	}
	return wl, nil
}

func (s *CartService) AddWishlistItem(ctx context.Context, sessionID string, item domain.CartItem) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	if err := s.repo.AddWishlistItem(ctx, sessionID, item); err != nil {
		log.Printf("repo add wishlist item error: %v", err)
		return err
	}
	return nil
}

func (s *CartService) RemoveWishlistItem(ctx context.Context, sessionID string, productID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	if err := s.repo.RemoveWishlistItem(ctx, sessionID, productID); err != nil {
		log.Printf("repo remove wishlist item error: %v", err)
		return err
	}
	return nil
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
