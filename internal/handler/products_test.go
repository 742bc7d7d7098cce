package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/handler"
	"github.com/comanda-pos/api/internal/middleware"
)

// mockProductStore keeps products in a map keyed by ID.
type mockProductStore struct {
	products map[uuid.UUID]database.Product
}

func newMockProductStore() *mockProductStore {
	return &mockProductStore{products: make(map[uuid.UUID]database.Product)}
}

func (m *mockProductStore) add(p database.Product) database.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductStore) CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error) {
	return m.add(database.Product{
		CompanyID:   arg.CompanyID,
		Name:        arg.Name,
		Price:       arg.Price,
		Category:    arg.Category,
		Description: arg.Description,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}), nil
}

func (m *mockProductStore) GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error) {
	p, ok := m.products[arg.ID]
	if !ok || p.CompanyID != arg.CompanyID || !p.IsActive {
		return database.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockProductStore) ListProducts(ctx context.Context, arg database.ListProductsParams) ([]database.Product, error) {
	var out []database.Product
	for _, p := range m.products {
		if p.CompanyID != arg.CompanyID || !p.IsActive {
			continue
		}
		if arg.Category.Valid && p.Category != arg.Category.String {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductStore) UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error) {
	p, ok := m.products[arg.ID]
	if !ok || p.CompanyID != arg.CompanyID || !p.IsActive {
		return database.Product{}, pgx.ErrNoRows
	}
	p.Name = arg.Name
	p.Price = arg.Price
	p.Category = arg.Category
	p.Description = arg.Description
	m.products[arg.ID] = p
	return p, nil
}

func (m *mockProductStore) SoftDeleteProduct(ctx context.Context, arg database.SoftDeleteProductParams) error {
	p, ok := m.products[arg.ID]
	if !ok || p.CompanyID != arg.CompanyID || !p.IsActive {
		return pgx.ErrNoRows
	}
	p.IsActive = false
	m.products[arg.ID] = p
	return nil
}

func setupProductRouter(store *mockProductStore) *chi.Mux {
	h := handler.NewProductHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/companies/{cid}/products", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		h.RegisterRoutes(r)
	})
	return r
}

func TestCreateProduct(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleAdmin)
	router := setupProductRouter(newMockProductStore())

	rr := doAuthRequest(t, router, "POST", "/companies/"+companyID.String()+"/products", map[string]interface{}{
		"name":     "Nasi Goreng",
		"price":    "25000",
		"category": "food",
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "Nasi Goreng" {
		t.Errorf("name = %v", resp["name"])
	}
	if resp["price"] != "25000.00" {
		t.Errorf("price = %v", resp["price"])
	}
	if resp["is_active"] != true {
		t.Errorf("is_active = %v", resp["is_active"])
	}
}

func TestCreateProductInvalidPrice(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleAdmin)
	router := setupProductRouter(newMockProductStore())

	for _, price := range []string{"", "abc", "-5.00"} {
		rr := doAuthRequest(t, router, "POST", "/companies/"+companyID.String()+"/products", map[string]interface{}{
			"name":     "Bakso",
			"price":    price,
			"category": "food",
		}, claims)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("price %q: status = %d, want 400", price, rr.Code)
		}
	}
}

func TestListProductsByCategory(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleWaiter)
	store := newMockProductStore()
	store.add(database.Product{CompanyID: companyID, Name: "Nasi Goreng", Category: "food", IsActive: true})
	store.add(database.Product{CompanyID: companyID, Name: "Es Teh Manis", Category: "drink", IsActive: true})
	store.add(database.Product{CompanyID: companyID, Name: "Bakso", Category: "food", IsActive: false})
	router := setupProductRouter(store)

	rr := doAuthRequest(t, router, "GET", "/companies/"+companyID.String()+"/products?category=food", nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	products, ok := resp["products"].([]interface{})
	if !ok || len(products) != 1 {
		t.Fatalf("products = %v", resp["products"])
	}
	p := products[0].(map[string]interface{})
	if p["name"] != "Nasi Goreng" {
		t.Errorf("name = %v", p["name"])
	}
}

func TestSoftDeleteProduct(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleAdmin)
	store := newMockProductStore()
	product := store.add(database.Product{CompanyID: companyID, Name: "Bakso", Category: "food", IsActive: true})
	router := setupProductRouter(store)

	rr := doAuthRequest(t, router, "DELETE", "/companies/"+companyID.String()+"/products/"+product.ID.String(), nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	// Row survives for order snapshots but is gone from reads.
	if _, ok := store.products[product.ID]; !ok {
		t.Fatal("row removed instead of soft deleted")
	}
	if store.products[product.ID].IsActive {
		t.Error("product still active")
	}

	rr = doAuthRequest(t, router, "GET", "/companies/"+companyID.String()+"/products/"+product.ID.String(), nil, claims)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleAdmin)
	router := setupProductRouter(newMockProductStore())

	rr := doAuthRequest(t, router, "PUT", "/companies/"+companyID.String()+"/products/"+uuid.New().String(), map[string]interface{}{
		"name":     "Bakso",
		"price":    "20000",
		"category": "food",
	}, claims)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
