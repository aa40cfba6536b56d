package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace/internal/domain"
	checkoutsvc "marketplace/internal/service/checkout"
	productsvc "marketplace/internal/service/product"

	"github.com/gin-gonic/gin"
)

type stubStoreRepo struct {
	store *domain.Store
	err   error
}

func (s *stubStoreRepo) GetByKey(_ context.Context, _ string) (*domain.Store, error) {
	return s.store, s.err
}

type stubProductService struct {
	products  []domain.Product
	getErr    error
	created   *productsvc.CreateInput
	createErr error
}

func (s *stubProductService) List(_ context.Context, _ string) ([]domain.Product, error) {
	return s.products, s.getErr
}

func (s *stubProductService) Get(_ context.Context, _, id string) (*domain.Product, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductService) Create(_ context.Context, _ *domain.Store, in productsvc.CreateInput) (*domain.Product, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &in
	return &domain.Product{ID: "p-new", Key: in.Key, Name: in.Name}, nil
}

type stubCheckoutService struct {
	order *domain.Order
	err   error
	input *checkoutsvc.Input
}

func (s *stubCheckoutService) Checkout(_ context.Context, in checkoutsvc.Input) (*domain.Order, error) {
	s.input = &in
	return s.order, s.err
}

type stubOrderService struct {
	order         *domain.Order
	err           error
	lastTarget    domain.OrderStatus
	transitionErr error
}

func (s *stubOrderService) Get(_ context.Context, _, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) List(_ context.Context, _ string) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.order == nil {
		return nil, nil
	}
	return []domain.Order{*s.order}, nil
}

func (s *stubOrderService) Transition(_ context.Context, _, _ string, target domain.OrderStatus) (*domain.Order, error) {
	s.lastTarget = target
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	updated := *s.order
	updated.Status = target
	return &updated, nil
}

type stubStockService struct {
	records map[string]domain.StockRecord
}

func (s *stubStockService) GetMany(_ context.Context, ids []string) (map[string]domain.StockRecord, error) {
	out := map[string]domain.StockRecord{}
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func testDeps() (Deps, *stubCheckoutService, *stubOrderService, *stubProductService) {
	checkout := &stubCheckoutService{}
	orders := &stubOrderService{}
	products := &stubProductService{}
	deps := Deps{
		Stores:   &stubStoreRepo{store: &domain.Store{ID: "s1", Key: "acme", OwnerID: "owner-1"}},
		Products: products,
		Checkout: checkout,
		Orders:   orders,
		Stock:    &stubStockService{records: map[string]domain.StockRecord{}},
	}
	return deps, checkout, orders, products
}

func newTestRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return buildRouter(log.New(io.Discard, "", 0), nil, deps, nil)
}

func doJSON(router *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStoreMiddleware_NotFound(t *testing.T) {
	deps, _, _, _ := testDeps()
	deps.Stores = &stubStoreRepo{err: domain.ErrNotFound}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodGet, "/stores/missing/products", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestStoreMiddleware_Error(t *testing.T) {
	deps, _, _, _ := testDeps()
	deps.Stores = &stubStoreRepo{err: errors.New("boom")}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodGet, "/stores/acme/products", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	deps, _, _, _ := testDeps()
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

const validCheckoutBody = `{
	"customerName": "Jane Buyer",
	"customerPhone": "08123456789",
	"lines": [{"variationId": "v1", "quantity": 2}]
}`

func TestCheckout_Created(t *testing.T) {
	deps, checkout, _, _ := testDeps()
	checkout.order = &domain.Order{
		ID:         "o1",
		StoreID:    "s1",
		Status:     domain.StatusPending,
		TotalCents: 2000,
		Items:      []domain.OrderItem{{VariationID: "v1", Quantity: 2, UnitPriceCents: 1000}},
	}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodPost, "/stores/acme/checkout", validCheckoutBody, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var out orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ID != "o1" || out.TotalCents != 2000 || len(out.Items) != 1 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if checkout.input.StoreID != "s1" {
		t.Fatalf("store not resolved: %+v", checkout.input)
	}
}

func TestCheckout_IdempotencyKeyHeader(t *testing.T) {
	deps, checkout, _, _ := testDeps()
	checkout.order = &domain.Order{ID: "o1"}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodPost, "/stores/acme/checkout", validCheckoutBody,
		map[string]string{"Idempotency-Key": "key-123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if checkout.input.IdempotencyKey == nil || *checkout.input.IdempotencyKey != "key-123" {
		t.Fatalf("idempotency key not forwarded: %+v", checkout.input.IdempotencyKey)
	}
}

func TestCheckout_BadPhone(t *testing.T) {
	deps, checkout, _, _ := testDeps()
	router := newTestRouter(deps)

	body := `{"customerName": "Jane", "customerPhone": "abc", "lines": [{"variationId": "v1", "quantity": 1}]}`
	rec := doJSON(router, http.MethodPost, "/stores/acme/checkout", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if checkout.input != nil {
		t.Fatal("service should not be called on invalid input")
	}
}

func TestCheckout_EmptyLines(t *testing.T) {
	deps, _, _, _ := testDeps()
	router := newTestRouter(deps)

	body := `{"customerName": "Jane", "customerPhone": "08123456789", "lines": []}`
	rec := doJSON(router, http.MethodPost, "/stores/acme/checkout", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	deps, checkout, _, _ := testDeps()
	checkout.err = &domain.InsufficientStockError{Shortages: []domain.StockShortage{
		{VariationID: "v1", Requested: 5, Available: 3},
	}}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodPost, "/stores/acme/checkout", validCheckoutBody, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}

	var out struct {
		Shortages []shortageResponse `json:"shortages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Shortages) != 1 || out.Shortages[0].Available != 3 || out.Shortages[0].Requested != 5 {
		t.Fatalf("unexpected shortages: %+v", out.Shortages)
	}
}

func TestOrderTransition_OK(t *testing.T) {
	deps, _, orders, _ := testDeps()
	orders.order = &domain.Order{ID: "o1", StoreID: "s1", Status: domain.StatusPending}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodPost, "/stores/acme/orders/o1/status", `{"status": "confirmed"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if orders.lastTarget != domain.StatusConfirmed {
		t.Fatalf("unexpected target: %s", orders.lastTarget)
	}

	var out orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "confirmed" {
		t.Fatalf("unexpected status: %s", out.Status)
	}
}

func TestOrderTransition_IllegalJump(t *testing.T) {
	deps, _, orders, _ := testDeps()
	orders.order = &domain.Order{ID: "o1", StoreID: "s1", Status: domain.StatusPending}
	orders.transitionErr = &domain.InvalidTransitionError{From: domain.StatusPending, To: domain.StatusShipped}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodPost, "/stores/acme/orders/o1/status", `{"status": "shipped"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	deps, _, orders, _ := testDeps()
	orders.err = domain.ErrNotFound
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodGet, "/stores/acme/orders/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestProducts_List(t *testing.T) {
	discount := int64(800)
	deps, _, _, products := testDeps()
	products.products = []domain.Product{{
		ID:   "p1",
		Key:  "tee",
		Name: "T-Shirt",
		Variations: []domain.Variation{
			{ID: "v1", SKU: "TEE-S", PriceCents: 1000, DiscountCents: &discount},
		},
	}}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodGet, "/stores/acme/products", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var out struct {
		Results []productResponse `json:"results"`
		Total   int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Total != 1 || len(out.Results) != 1 {
		t.Fatalf("unexpected list: %+v", out)
	}
	if got := out.Results[0].Variations[0].UnitPriceCents; got != 800 {
		t.Fatalf("expected discounted unit price, got %d", got)
	}
}

func TestProducts_Create(t *testing.T) {
	deps, _, _, products := testDeps()
	router := newTestRouter(deps)

	body := `{"key": "tee", "name": "T-Shirt", "variations": [{"sku": "TEE-S", "priceCents": 1500, "quantity": 10}]}`
	rec := doJSON(router, http.MethodPost, "/stores/acme/products", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if products.created == nil || products.created.Key != "tee" {
		t.Fatalf("create input: %+v", products.created)
	}
}

func TestStock_Query(t *testing.T) {
	deps, _, _, _ := testDeps()
	deps.Stock = &stubStockService{records: map[string]domain.StockRecord{
		"v1": {VariationID: "v1", Quantity: 4},
	}}
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodGet, "/stores/acme/stock?variation=v1&variation=v2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var out struct {
		Results map[string]int `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Results["v1"] != 4 || out.Results["v2"] != 0 {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
}

func TestStock_QueryNoIDs(t *testing.T) {
	deps, _, _, _ := testDeps()
	router := newTestRouter(deps)

	rec := doJSON(router, http.MethodGet, "/stores/acme/stock", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestProducts_CreatePlanLimit(t *testing.T) {
	deps, _, _, products := testDeps()
	products.createErr = productsvc.ErrPlanLimit
	router := newTestRouter(deps)

	body := `{"key": "tee", "name": "T-Shirt", "variations": [{"sku": "TEE-S", "priceCents": 1500, "quantity": 10}]}`
	rec := doJSON(router, http.MethodPost, "/stores/acme/products", body, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}
