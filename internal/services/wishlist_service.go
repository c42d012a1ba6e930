package services

import (
	"context"

	"murlie/internal/repos"
)

type WishlistService struct {
	Repo *repos.WishlistRepo
}

func NewWishlistService(r *repos.WishlistRepo) *WishlistService { return &WishlistService{Repo: r} }

// Toggle saves the product if it is not on the user's wishlist and removes it
// otherwise. It reports whether the product is saved afterwards.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	has, err := s.Repo.Has(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if has {
		return false, s.Repo.Remove(ctx, userID, productID)
	}
	return true, s.Repo.Add(ctx, userID, productID)
}

func (s *WishlistService) List(ctx context.Context, userID string) ([]repos.WishlistRow, error) {
	return s.Repo.List(ctx, userID)
}

func (s *WishlistService) Saved(ctx context.Context, userID, productID string) (bool, error) {
	return s.Repo.Has(ctx, userID, productID)
}
