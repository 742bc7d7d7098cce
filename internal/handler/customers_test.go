package handler_test

import (
	"context"
	"net/http"
	"strings"
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

// mockCustomerStore keeps customers in a map keyed by ID.
type mockCustomerStore struct {
	customers map[uuid.UUID]database.Customer
}

func newMockCustomerStore() *mockCustomerStore {
	return &mockCustomerStore{customers: make(map[uuid.UUID]database.Customer)}
}

func (m *mockCustomerStore) add(c database.Customer) database.Customer {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.customers[c.ID] = c
	return c
}

func (m *mockCustomerStore) CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	return m.add(database.Customer{
		CompanyID: arg.CompanyID,
		Name:      arg.Name,
		Phone:     arg.Phone,
		Email:     arg.Email,
		Address:   arg.Address,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}), nil
}

func (m *mockCustomerStore) GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error) {
	c, ok := m.customers[arg.ID]
	if !ok || c.CompanyID != arg.CompanyID || !c.IsActive {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockCustomerStore) ListCustomers(ctx context.Context, arg database.ListCustomersParams) ([]database.Customer, error) {
	var out []database.Customer
	for _, c := range m.customers {
		if c.CompanyID != arg.CompanyID || !c.IsActive {
			continue
		}
		if arg.Search.Valid {
			q := strings.ToLower(arg.Search.String)
			if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, q) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCustomerStore) UpdateCustomer(ctx context.Context, arg database.UpdateCustomerParams) (database.Customer, error) {
	c, ok := m.customers[arg.ID]
	if !ok || c.CompanyID != arg.CompanyID || !c.IsActive {
		return database.Customer{}, pgx.ErrNoRows
	}
	c.Name = arg.Name
	c.Phone = arg.Phone
	c.Email = arg.Email
	c.Address = arg.Address
	m.customers[arg.ID] = c
	return c, nil
}

func (m *mockCustomerStore) SoftDeleteCustomer(ctx context.Context, arg database.SoftDeleteCustomerParams) error {
	c, ok := m.customers[arg.ID]
	if !ok || c.CompanyID != arg.CompanyID || !c.IsActive {
		return pgx.ErrNoRows
	}
	c.IsActive = false
	m.customers[arg.ID] = c
	return nil
}

func setupCustomerRouter(store *mockCustomerStore) *chi.Mux {
	h := handler.NewCustomerHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/companies/{cid}/customers", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		h.RegisterRoutes(r)
	})
	return r
}

func TestCreateCustomer(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleWaiter)
	router := setupCustomerRouter(newMockCustomerStore())

	rr := doAuthRequest(t, router, "POST", "/companies/"+companyID.String()+"/customers", map[string]interface{}{
		"name":    "Budi Santoso",
		"phone":   "081234567890",
		"address": "Jl. Merdeka 1",
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "Budi Santoso" {
		t.Errorf("name = %v", resp["name"])
	}
	if resp["address"] != "Jl. Merdeka 1" {
		t.Errorf("address = %v", resp["address"])
	}
	if resp["email"] != nil {
		t.Errorf("email = %v", resp["email"])
	}
}

func TestCreateCustomerMissingPhone(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleWaiter)
	router := setupCustomerRouter(newMockCustomerStore())

	rr := doAuthRequest(t, router, "POST", "/companies/"+companyID.String()+"/customers", map[string]interface{}{
		"name": "Budi Santoso",
	}, claims)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestListCustomersSearch(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleWaiter)
	store := newMockCustomerStore()
	store.add(database.Customer{CompanyID: companyID, Name: "Budi Santoso", Phone: "0812", IsActive: true})
	store.add(database.Customer{CompanyID: companyID, Name: "Siti Aminah", Phone: "0856", IsActive: true})
	router := setupCustomerRouter(store)

	rr := doAuthRequest(t, router, "GET", "/companies/"+companyID.String()+"/customers?search=budi", nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	customers, ok := resp["customers"].([]interface{})
	if !ok || len(customers) != 1 {
		t.Fatalf("customers = %v", resp["customers"])
	}
}

func TestSoftDeleteCustomer(t *testing.T) {
	companyID := uuid.New()
	claims := testClaims(companyID, enum.UserRoleWaiter)
	store := newMockCustomerStore()
	customer := store.add(database.Customer{CompanyID: companyID, Name: "Budi", Phone: "0812", IsActive: true})
	router := setupCustomerRouter(store)

	rr := doAuthRequest(t, router, "DELETE", "/companies/"+companyID.String()+"/customers/"+customer.ID.String(), nil, claims)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if store.customers[customer.ID].IsActive {
		t.Error("customer still active")
	}

	rr = doAuthRequest(t, router, "GET", "/companies/"+companyID.String()+"/customers/"+customer.ID.String(), nil, claims)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
