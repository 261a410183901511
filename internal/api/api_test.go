package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mandimarket/marketplace-api/internal/api/handler"
	"github.com/mandimarket/marketplace-api/internal/api/middleware"
	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
	"github.com/mandimarket/marketplace-api/internal/core/service"
	"github.com/mandimarket/marketplace-api/internal/core/token"
)

// --- In-memory collaborators ---

type memUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email || u.Phone == user.Phone {
			return nil, domain.ErrDuplicateUser
		}
	}
	r.nextID++
	clone := *user
	clone.ID = fmt.Sprintf("user_%d", r.nextID)
	stored := clone
	r.users[clone.ID] = &stored
	return &clone, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

type memProductRepo struct {
	products map[string]*domain.Product
	nextID   int
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[string]*domain.Product)}
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	clone.Images = append([]string(nil), p.Images...)
	clone.Attachments = append([]string(nil), p.Attachments...)
	return &clone
}

func (r *memProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.nextID++
	clone := cloneProduct(p)
	clone.ID = fmt.Sprintf("prod_%d", r.nextID)
	r.products[clone.ID] = cloneProduct(clone)
	return clone, nil
}

func (r *memProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := r.products[id]; ok {
		return cloneProduct(p), nil
	}
	return nil, domain.ErrProductNotFound
}

func (r *memProductRepo) SetAvailability(_ context.Context, id string, inStock bool) error {
	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.InStock = inStock
	return nil
}

func (r *memProductRepo) ReplaceMedia(_ context.Context, id string, version int64, images, attachments []string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if p.Version != version {
		return nil, domain.ErrVersionConflict
	}
	p.Images = append([]string(nil), images...)
	p.Attachments = append([]string(nil), attachments...)
	p.Version++
	return cloneProduct(p), nil
}

type memUploader struct {
	mu    sync.Mutex
	calls int
}

func (u *memUploader) Upload(_ context.Context, file ports.UploadFile) (string, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	return "blob://" + file.Filename, nil
}

func (u *memUploader) Delete(_ context.Context, _ string) error { return nil }

func (u *memUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

type testApp struct {
	e        *echo.Echo
	users    *memUserRepo
	products *memProductRepo
	uploader *memUploader
}

// newTestApp wires the real services and middleware over in-memory
// collaborators, mirroring the route table in NewRouter.
func newTestApp() *testApp {
	log := zerolog.Nop()
	users := newMemUserRepo()
	products := newMemProductRepo()
	uploader := &memUploader{}
	tokens := token.New("test-secret")

	authService := service.NewAuthService(users, tokens, log)
	productService := service.NewProductService(products, uploader, nil, nil, log)

	authHandler := handler.NewAuthHandler(authService, tokens.TTL(), false)
	productHandler := handler.NewProductHandler(productService)
	authenticated := middleware.Auth(tokens, users)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authenticated)
	e.GET("/auth/profile", authHandler.Profile, authenticated)
	e.POST("/products", productHandler.Create, authenticated,
		middleware.RequireRole(domain.RoleVendor, domain.RoleSupplier))
	e.GET("/products/:id", productHandler.Get, authenticated)
	e.PATCH("/products/:id/availability", productHandler.ToggleAvailability, authenticated)
	e.PUT("/products/:id/media", productHandler.UpdateMedia, authenticated)

	return &testApp{e: e, users: users, products: products, uploader: uploader}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path string, body map[string]any) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func (a *testApp) register(t *testing.T, name, email, phone, role string) *http.Cookie {
	t.Helper()
	rec := a.do(jsonRequest(http.MethodPost, "/auth/register", map[string]any{
		"name": name, "email": email, "phone": phone,
		"address": "1 Market St", "password": "pass123", "role": role,
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", email, rec.Code, rec.Body)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			return ck
		}
	}
	t.Fatalf("register %s: no session cookie set", email)
	return nil
}

func (a *testApp) createProduct(t *testing.T, cookie *http.Cookie) string {
	t.Helper()
	req := jsonRequest(http.MethodPost, "/products", map[string]any{
		"name": "Basmati Rice", "category": "grains",
		"price_per_unit": 12.5, "available_quantity": 10,
	})
	req.AddCookie(cookie)
	rec := a.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d (%s)", rec.Code, rec.Body)
	}
	var created domain.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return created.ID
}

func mediaRequest(t *testing.T, productID string, deleteImages []string, newImages []string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, uri := range deleteImages {
		_ = mw.WriteField("delete_images", uri)
	}
	for _, name := range newImages {
		part, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("build multipart: %v", err)
		}
		_, _ = part.Write([]byte("fake-bytes"))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/products/"+productID+"/media", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

// --- Tests ---

func TestLogin_UniformUnauthorizedBody(t *testing.T) {
	app := newTestApp()
	app.register(t, "Dave", "dave@example.com", "111", "vendor")

	wrongPass := app.do(jsonRequest(http.MethodPost, "/auth/login", map[string]any{
		"email": "dave@example.com", "password": "wrong",
	}))
	unknownEmail := app.do(jsonRequest(http.MethodPost, "/auth/login", map[string]any{
		"email": "ghost@example.com", "password": "pass123",
	}))

	if wrongPass.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, unknownEmail.Code)
	}
	if wrongPass.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("401 bodies differ: %q vs %q", wrongPass.Body, unknownEmail.Body)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newTestApp()
	app.register(t, "Dave", "dave@example.com", "111", "vendor")

	rec := app.do(jsonRequest(http.MethodPost, "/auth/register", map[string]any{
		"name": "Imposter", "email": "dave@example.com", "phone": "222",
		"address": "2 Market St", "password": "pass123", "role": "vendor",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body)
	}
}

func TestProfile_RequiresAuth(t *testing.T) {
	app := newTestApp()

	rec := app.do(httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not authorized") {
		t.Fatalf("expected generic message, got %s", rec.Body)
	}
}

func TestCreateProduct_RoleGate(t *testing.T) {
	app := newTestApp()
	customer := app.register(t, "Carl", "carl@example.com", "333", "customer")

	req := jsonRequest(http.MethodPost, "/products", map[string]any{
		"name": "Rice", "category": "grains", "price_per_unit": 1.0, "available_quantity": 1,
	})
	req.AddCookie(customer)
	rec := app.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d (%s)", rec.Code, rec.Body)
	}
}

func TestUpdateMedia_OwnerOnly(t *testing.T) {
	app := newTestApp()
	ownerA := app.register(t, "Alice", "alice@example.com", "111", "vendor")
	ownerB := app.register(t, "Bob", "bob@example.com", "222", "vendor")

	productID := app.createProduct(t, ownerA)

	// Same role, different identity: must be rejected, and storage untouched.
	req := mediaRequest(t, productID, nil, []string{"sneaky.png"})
	req.AddCookie(ownerB)
	rec := app.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d (%s)", rec.Code, rec.Body)
	}

	stored, _ := app.products.FindByID(context.Background(), productID)
	if len(stored.Images) != 0 {
		t.Fatalf("media changed by non-owner: %v", stored.Images)
	}
	if app.uploader.callCount() != 0 {
		t.Fatalf("uploads issued for a forbidden request: %d", app.uploader.callCount())
	}
}

func TestUpdateMedia_OwnerSucceeds(t *testing.T) {
	app := newTestApp()
	owner := app.register(t, "Alice", "alice@example.com", "111", "supplier")
	productID := app.createProduct(t, owner)

	req := mediaRequest(t, productID, nil, []string{"front.png", "back.png"})
	req.AddCookie(owner)
	rec := app.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body)
	}

	var updated domain.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if len(updated.Images) != 2 {
		t.Fatalf("expected 2 images, got %v", updated.Images)
	}
}

func TestUpdateMedia_QuotaRejected(t *testing.T) {
	app := newTestApp()
	owner := app.register(t, "Alice", "alice@example.com", "111", "vendor")
	productID := app.createProduct(t, owner)

	names := make([]string, domain.MaxImages+1)
	for i := range names {
		names[i] = fmt.Sprintf("img-%d.png", i)
	}
	req := mediaRequest(t, productID, nil, names)
	req.AddCookie(owner)
	rec := app.do(req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body)
	}
	if app.uploader.callCount() != 0 {
		t.Fatalf("uploads issued despite quota rejection: %d", app.uploader.callCount())
	}
}

func TestToggleAvailability_EndToEnd(t *testing.T) {
	app := newTestApp()
	owner := app.register(t, "Alice", "alice@example.com", "111", "vendor")
	other := app.register(t, "Bob", "bob@example.com", "222", "vendor")
	productID := app.createProduct(t, owner)

	req := httptest.NewRequest(http.MethodPatch, "/products/"+productID+"/availability", nil)
	req.AddCookie(other)
	if rec := app.do(req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/products/"+productID+"/availability", nil)
	req.AddCookie(owner)
	rec := app.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body)
	}
	var updated domain.Product
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.InStock {
		t.Fatalf("expected in_stock to flip to false")
	}
}

func TestLogout_ExpiresCookie(t *testing.T) {
	app := newTestApp()
	owner := app.register(t, "Alice", "alice@example.com", "111", "vendor")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(owner)
	rec := app.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie && ck.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("session cookie not cleared")
	}
}
