package repository

import (
	"context"

	"github.com/obinna-o/go_marketgate/internal/cart/domain"
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, sessionID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, sessionID string, productID string) error
	DeleteCart(ctx context.Context, sessionID string) error
}

type WishlistRepository interface {
	GetWishlist(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	AddWishlistItem(ctx context.Context, sessionID string, item domain.CartItem) error
	RemoveWishlistItem(ctx context.Context, sessionID string, productID string) error
}
