package downloads

import (
	"context"
	"errors"
	"testing"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
	catalogsvc "github.com/ibitsola/Tekhnologia/internal/services/catalog"
)

type catalogStub struct {
	resources map[int64]model.Resource
	files     map[string][]byte
}

func (c *catalogStub) Get(_ context.Context, resourceID int64) (model.Resource, error) {
	resource, ok := c.resources[resourceID]
	if !ok {
		return model.Resource{}, catalogsvc.ErrResourceNotFound
	}
	return resource, nil
}

func (c *catalogStub) FetchFile(_ context.Context, resource model.Resource) ([]byte, error) {
	data, ok := c.files[resource.FileKey]
	if !ok {
		return nil, catalogsvc.ErrFileNotFound
	}
	return data, nil
}

type entitlementStub struct {
	paid map[[2]int64]bool
}

func (e *entitlementStub) HasPaid(_ context.Context, resourceID, userID int64) (bool, error) {
	return e.paid[[2]int64{resourceID, userID}], nil
}

func newServiceForTest() (*Service, *catalogStub, *entitlementStub) {
	price := int64(1999)
	external := "https://partner.example/course"
	catalog := &catalogStub{
		resources: map[int64]model.Resource{
			1: {ID: 1, Title: "Paid Workbook", FileKey: "k1", FileName: "workbook.pdf", ContentType: "application/pdf", IsFree: false, PriceCents: &price},
			2: {ID: 2, Title: "Free Tracker", FileKey: "k2", FileName: "tracker.pdf", ContentType: "application/pdf", IsFree: true},
			3: {ID: 3, Title: "Partner Course", IsFree: false, PriceCents: &price, ExternalURL: &external},
		},
		files: map[string][]byte{
			"k1": []byte("paid-bytes"),
			"k2": []byte("free-bytes"),
		},
	}
	entitlements := &entitlementStub{paid: make(map[[2]int64]bool)}
	return NewService(catalog, entitlements, nil), catalog, entitlements
}

func TestResolveFreeResourceNeedsNoPurchase(t *testing.T) {
	svc, _, _ := newServiceForTest()

	download, err := svc.Resolve(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("resolve free resource: %v", err)
	}
	if string(download.Data) != "free-bytes" || download.FileName != "tracker.pdf" {
		t.Fatalf("unexpected download %+v", download)
	}
}

func TestResolvePaidResourceRequiresSettledPurchase(t *testing.T) {
	svc, _, entitlements := newServiceForTest()
	ctx := context.Background()

	// No purchase at all.
	if _, err := svc.Resolve(ctx, 10, 1); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("expected ErrPaymentRequired without purchase, got %v", err)
	}

	// HasPaid covers the purchase ledger: pending rows report false,
	// regardless of how many checkouts the user abandoned.
	entitlements.paid[[2]int64{1, 10}] = false
	if _, err := svc.Resolve(ctx, 10, 1); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("expected ErrPaymentRequired with pending-only purchases, got %v", err)
	}

	entitlements.paid[[2]int64{1, 10}] = true
	download, err := svc.Resolve(ctx, 10, 1)
	if err != nil {
		t.Fatalf("resolve settled purchase: %v", err)
	}
	if string(download.Data) != "paid-bytes" {
		t.Fatalf("unexpected download data %q", download.Data)
	}
}

func TestResolveEntitlementDoesNotLeakAcrossUsers(t *testing.T) {
	svc, _, entitlements := newServiceForTest()
	ctx := context.Background()

	entitlements.paid[[2]int64{1, 10}] = true

	if _, err := svc.Resolve(ctx, 11, 1); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("another user must not inherit the entitlement, got %v", err)
	}
}

func TestResolveExternalResourceRedirects(t *testing.T) {
	svc, _, entitlements := newServiceForTest()
	entitlements.paid[[2]int64{3, 10}] = true

	download, err := svc.Resolve(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("resolve external resource: %v", err)
	}
	if download.RedirectURL != "https://partner.example/course" {
		t.Fatalf("expected redirect, got %+v", download)
	}
	if len(download.Data) != 0 {
		t.Fatalf("redirect downloads must not carry bytes")
	}
}

func TestResolveDistinguishesMissingFileFromDenial(t *testing.T) {
	svc, catalog, entitlements := newServiceForTest()
	ctx := context.Background()

	entitlements.paid[[2]int64{1, 10}] = true
	delete(catalog.files, "k1")

	if _, err := svc.Resolve(ctx, 10, 1); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}

	if _, err := svc.Resolve(ctx, 10, 99); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}
