package services_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"murlie/internal/repos"
	"murlie/internal/services"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSignUpThenLogin(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}

	u, err := auth.SignUp(ctx, "sid-1", "Emma", "emma@murlie.test", "Str0ng!pass")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != "USER" || u.Hash == "Str0ng!pass" {
		t.Fatalf("unexpected user: %+v", u)
	}
	cur, err := auth.CurrentUser(ctx, "sid-1")
	if err != nil || cur.ID != u.ID {
		t.Fatalf("session not bound: %v %+v", err, cur)
	}

	if _, err := auth.SignUp(ctx, "sid-2", "Emma", "EMMA@murlie.test", "Str0ng!pass"); !errors.Is(err, services.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}

	if _, err := auth.Login(ctx, "sid-3", "emma@murlie.test", "wrong"); !errors.Is(err, services.ErrBadCreds) {
		t.Fatalf("want ErrBadCreds, got %v", err)
	}
	if _, err := auth.Login(ctx, "sid-3", "emma@murlie.test", "Str0ng!pass"); err != nil {
		t.Fatal(err)
	}

	if err := auth.Logout(ctx, "sid-3"); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.CurrentUser(ctx, "sid-3"); err == nil {
		t.Fatal("session still bound after logout")
	}
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	auth := &services.AuthService{Users: repos.NewUserRepo(memdb(t))}
	_, err := auth.SignUp(context.Background(), "sid", "Emma", "emma@murlie.test", "password")
	var verr *services.ValidationError
	if !errors.As(err, &verr) || verr.Field != "password" {
		t.Fatalf("want password validation error, got %v", err)
	}
}

func TestCheckVariant(t *testing.T) {
	db := memdb(t)
	cat := services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db), repos.NewImageRepo(db))
	ctx := context.Background()

	cases := []struct {
		product, size, color string
		field                string
	}{
		{"aeroflex-knit-pro", "IND 7", "red", ""},
		{"aeroflex-knit-pro", "IND 7", "", ""},
		{"aeroflex-knit-pro", "", "red", "size"},
		{"aeroflex-knit-pro", "IND 12", "", "size"},
		{"aeroflex-knit-pro", "IND 7", "purple", "color"},
		{"sparkle-comfort-slippers", "", "", ""},
		{"sparkle-comfort-slippers", "IND 7", "", "size"},
		{"no-such-shoe", "", "", "product"},
	}
	for _, tc := range cases {
		err := cat.CheckVariant(ctx, tc.product, tc.size, tc.color)
		if tc.field == "" {
			if err != nil {
				t.Errorf("%+v: unexpected error %v", tc, err)
			}
			continue
		}
		var verr *services.ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Errorf("%+v: want %s validation error, got %v", tc, tc.field, err)
		}
	}
}

func TestProductDetail(t *testing.T) {
	db := memdb(t)
	cat := services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db), repos.NewImageRepo(db))
	d, err := cat.GetProduct(context.Background(), "aeroflex-knit-pro")
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "AeroFlex Knit Pro" || len(d.Sizes) != 5 || len(d.Colors) != 3 || len(d.Images) != 1 {
		t.Fatalf("unexpected detail: %+v", d)
	}
	if !d.OriginalPrice.Valid || d.OriginalPrice.Decimal.IntPart() != 320 {
		t.Fatalf("original price not loaded: %+v", d.OriginalPrice)
	}
	feat, err := cat.Featured(context.Background(), 0)
	if err != nil || len(feat) != 4 {
		t.Fatalf("featured: %v %d", err, len(feat))
	}
}

func TestUploadValidation(t *testing.T) {
	up := &services.UploadService{MaxBytes: 5 << 20}

	if _, err := up.Validate([]byte("just some text"), 14); err == nil || !strings.Contains(err.Error(), "only image") {
		t.Fatalf("text accepted as image: %v", err)
	}
	if _, err := up.Validate(pngBytes, 6<<20); err == nil || !strings.Contains(err.Error(), "less than 5MB") {
		t.Fatalf("oversize accepted: %v", err)
	}
	url, err := up.Preview(pngBytes, int64(len(pngBytes)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("bad preview url: %s", url[:30])
	}
}

func TestUploadStoreBecomesPrimaryImage(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	media := t.TempDir()
	up := &services.UploadService{
		Images:   repos.NewImageRepo(db),
		Prods:    repos.NewProductRepo(db),
		MediaDir: media,
		MaxBytes: 5 << 20,
	}

	img, err := up.Store(ctx, "comfortslip-elite", "Main Image", pngBytes)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(media, filepath.FromSlash(img.ImageURL))); err != nil {
		t.Fatalf("file not written: %v", err)
	}
	imgs, err := repos.NewImageRepo(db).ListByProduct(ctx, "comfortslip-elite")
	if err != nil {
		t.Fatal(err)
	}
	if len(imgs) != 1 || imgs[0].ImageURL != img.ImageURL {
		t.Fatalf("main slot not replaced: %+v", imgs)
	}

	if _, err := up.Store(ctx, "comfortslip-elite", "Side View", pngBytes); err == nil {
		t.Fatal("unknown slot accepted")
	}
	if _, err := up.Store(ctx, "ghost", "IND 8", pngBytes); err == nil {
		t.Fatal("unknown product accepted")
	}

	if err := up.Remove(ctx, "comfortslip-elite", "Main Image"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(media, filepath.FromSlash(img.ImageURL))); !os.IsNotExist(err) {
		t.Fatalf("file left behind: %v", err)
	}
	var verr *services.ValidationError
	if err := up.Remove(ctx, "comfortslip-elite", "Main Image"); !errors.As(err, &verr) {
		t.Fatalf("empty slot: want validation error, got %v", err)
	}
}

func TestWishlistToggle(t *testing.T) {
	ctx := context.Background()
	svc := services.NewWishlistService(repos.NewWishlistRepo(memdb(t)))

	saved, err := svc.Toggle(ctx, "u-sarah", "aeroflex-knit-pro")
	if err != nil || !saved {
		t.Fatalf("first toggle: %v %v", saved, err)
	}
	rows, _ := svc.List(ctx, "u-sarah")
	if len(rows) != 1 || rows[0].Name != "AeroFlex Knit Pro" {
		t.Fatalf("unexpected wishlist: %+v", rows)
	}
	saved, err = svc.Toggle(ctx, "u-sarah", "aeroflex-knit-pro")
	if err != nil || saved {
		t.Fatalf("second toggle: %v %v", saved, err)
	}
}
