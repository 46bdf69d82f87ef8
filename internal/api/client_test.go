package api

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmlink/farmlink-go/internal/mockapi"
	"github.com/farmlink/farmlink-go/internal/model"
)

// staticToken is a TokenSource with a fixed value.
type staticToken string

func (t staticToken) Token() string { return string(t) }

func newTestServer(t *testing.T) (*mockapi.Server, *httptest.Server) {
	t.Helper()
	s := mockapi.NewServer("test-secret")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// testPhoto returns a small PNG suitable for upload tests.
func testPhoto() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{90, 160, 90, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestLogin(t *testing.T) {
	s, ts := newTestServer(t)
	user := s.SeedUser("Amina", "amina@example.com", "s3cret1", "0712345678")

	client := NewClient(nil, ts.URL, nil)
	resp, err := client.Login(context.Background(), "amina@example.com", "s3cret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.User.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, resp.User.ID)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s, ts := newTestServer(t)
	s.SeedUser("Amina", "amina@example.com", "s3cret1", "")

	client := NewClient(nil, ts.URL, nil)
	_, err := client.Login(context.Background(), "amina@example.com", "wrong")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", authErr.Status)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, ts := newTestServer(t)
	s.SeedUser("Amina", "amina@example.com", "s3cret1", "")

	client := NewClient(nil, ts.URL, nil)
	err := client.Register(context.Background(), RegisterRequest{
		Name:     "Other",
		Email:    "amina@example.com",
		Password: "s3cret1",
	})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", reqErr.Status)
	}
}

func TestListingsFiltersAndSort(t *testing.T) {
	s, ts := newTestServer(t)
	seller := s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "")
	s.SeedListing(seller, "Maize seed 10kg", "Crop Seeds", "40")
	s.SeedListing(seller, "Used tractor", "Tractors and Machinery", "5000")
	s.SeedListing(seller, "Hybrid maize seed", "Crop Seeds", "65")

	client := NewClient(nil, ts.URL, nil)

	listings, err := client.Listings(context.Background(), model.Query{
		Search:   "maize",
		Category: "Crop Seeds",
		SortBy:   model.SortPriceAsc,
	})
	if err != nil {
		t.Fatalf("Listings: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Price != "40" || listings[1].Price != "65" {
		t.Errorf("expected ascending prices, got %s then %s", listings[0].Price, listings[1].Price)
	}

	listings, err = client.Listings(context.Background(), model.Query{MinPrice: "100"})
	if err != nil {
		t.Fatalf("Listings with minPrice: %v", err)
	}
	if len(listings) != 1 || listings[0].Title != "Used tractor" {
		t.Errorf("expected only the tractor above 100, got %v", listings)
	}
}

func TestListingNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	client := NewClient(nil, ts.URL, nil)
	_, err := client.Listing(context.Background(), "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateListingRequiresToken(t *testing.T) {
	s, ts := newTestServer(t)

	client := NewClient(nil, ts.URL, staticToken(""))
	_, err := client.CreateListing(context.Background(), ListingDraft{
		Title:       "Maize seed",
		Location:    "Eldoret",
		Category:    "Crop Seeds",
		Description: "Certified seed",
		Price:       "40",
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if n := s.RequestCount(http.MethodPost, "/api/listings"); n != 0 {
		t.Errorf("expected no request to reach the server, got %d", n)
	}
}

func TestCreateListingRoundTrip(t *testing.T) {
	s, ts := newTestServer(t)
	seller := s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "")

	client := NewClient(nil, ts.URL, staticToken(s.TokenFor(seller.ID)))
	listing, err := client.CreateListing(context.Background(), ListingDraft{
		Title:       "Drip irrigation kit",
		Location:    "Nakuru",
		Category:    "Irrigation Systems",
		Description: "Covers half an acre",
		Price:       "120",
		Images:      []Upload{{Name: "kit.png", Data: testPhoto()}},
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	if listing.Seller.ID != seller.ID {
		t.Errorf("expected seller %s, got %s", seller.ID, listing.Seller.ID)
	}
	if len(listing.Images) != 1 {
		t.Errorf("expected 1 stored image, got %d", len(listing.Images))
	}

	got, err := client.Listing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("Listing after create: %v", err)
	}
	if got.Title != "Drip irrigation kit" {
		t.Errorf("unexpected title %q", got.Title)
	}
}

func TestUpdateListingNotOwner(t *testing.T) {
	s, ts := newTestServer(t)
	seller := s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "")
	other := s.SeedUser("Amina", "amina@example.com", "s3cret1", "")
	listing := s.SeedListing(seller, "Used tractor", "Tractors and Machinery", "5000")

	client := NewClient(nil, ts.URL, staticToken(s.TokenFor(other.ID)))
	_, err := client.UpdateListing(context.Background(), listing.ID, ListingDraft{
		Title:       "Cheap tractor",
		Location:    "Kisumu",
		Category:    "Tractors and Machinery",
		Description: "Runs fine",
		Price:       "4000",
	})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Status != http.StatusForbidden {
		t.Errorf("expected 403, got %d", authErr.Status)
	}
}

func TestDeleteListing(t *testing.T) {
	s, ts := newTestServer(t)
	seller := s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "")
	listing := s.SeedListing(seller, "Used tractor", "Tractors and Machinery", "5000")

	client := NewClient(nil, ts.URL, staticToken(s.TokenFor(seller.ID)))
	if err := client.DeleteListing(context.Background(), listing.ID); err != nil {
		t.Fatalf("DeleteListing: %v", err)
	}
	if _, err := client.Listing(context.Background(), listing.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMessageSeller(t *testing.T) {
	s, ts := newTestServer(t)
	seller := s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "")
	buyer := s.SeedUser("Amina", "amina@example.com", "s3cret1", "")
	listing := s.SeedListing(seller, "Used tractor", "Tractors and Machinery", "5000")

	client := NewClient(nil, ts.URL, staticToken(s.TokenFor(buyer.ID)))
	if err := client.MessageSeller(context.Background(), listing.ID, "Is it still available?"); err != nil {
		t.Fatalf("MessageSeller: %v", err)
	}

	messages := s.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 recorded message, got %d", len(messages))
	}
	if messages[0].FromID != buyer.ID || messages[0].ListingID != listing.ID {
		t.Errorf("message recorded against wrong listing or sender: %+v", messages[0])
	}
}

func TestDiscussionsLimit(t *testing.T) {
	s, ts := newTestServer(t)
	author := s.SeedUser("Amina", "amina@example.com", "s3cret1", "")
	s.SeedDiscussion(author, "Armyworm outbreak", "Anyone else seeing damage?")
	s.SeedDiscussion(author, "Rain forecast", "Long rains look late this year.")
	s.SeedDiscussion(author, "Seed prices", "Where is certified seed cheapest?")

	client := NewClient(nil, ts.URL, nil)
	posts, err := client.Discussions(context.Background(), model.Query{Limit: 2})
	if err != nil {
		t.Fatalf("Discussions: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	// Newest first.
	if posts[0].Title != "Seed prices" {
		t.Errorf("expected newest post first, got %q", posts[0].Title)
	}
}

func TestCommunityStats(t *testing.T) {
	s, ts := newTestServer(t)
	author := s.SeedUser("Amina", "amina@example.com", "s3cret1", "")
	s.SeedDiscussion(author, "Rain forecast", "Long rains look late this year.")

	client := NewClient(nil, ts.URL, nil)
	stats, err := client.CommunityStats(context.Background())
	if err != nil {
		t.Fatalf("CommunityStats: %v", err)
	}
	if stats.TotalUsers != 1 || stats.TotalDiscussions != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestUserRequiresToken(t *testing.T) {
	s, ts := newTestServer(t)
	seller := s.SeedUser("Joseph", "joseph@example.com", "s3cret1", "0712345678")

	client := NewClient(nil, ts.URL, staticToken(""))
	if _, err := client.User(context.Background(), seller.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	authed := NewClient(nil, ts.URL, staticToken(s.TokenFor(seller.ID)))
	user, err := authed.User(context.Background(), seller.ID)
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if user.Phone != "0712345678" {
		t.Errorf("expected contact phone, got %q", user.Phone)
	}
}

func TestNetworkErrorOnUnreachableServer(t *testing.T) {
	_, ts := newTestServer(t)
	url := ts.URL
	ts.Close()

	client := NewClient(nil, url, nil)
	_, err := client.Listings(context.Background(), model.Query{})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
