package router_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"realty-listings/internal/auth"
	"realty-listings/internal/config"
	"realty-listings/internal/geocode"
	"realty-listings/internal/handlers"
	"realty-listings/internal/logging"
	"realty-listings/internal/models"
	"realty-listings/internal/notify"
	"realty-listings/internal/property"
	"realty-listings/internal/ratelimit"
	"realty-listings/internal/router"
	"realty-listings/internal/scheduler"
	"realty-listings/internal/storage"
	"realty-listings/internal/testutil"
	"realty-listings/internal/worker"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
	officeEmail   = "office@example.com"
)

// 1x1 transparent PNG
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
	if err := handlers.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type inlineTasks struct {
	names []string
}

func (s *inlineTasks) Submit(name string, fn worker.TaskFunc) bool {
	s.names = append(s.names, name)
	_ = fn(context.Background())
	return true
}

type pingDB struct{ db *gorm.DB }

func (p pingDB) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type fakeUpstream struct{}

func (fakeUpstream) Lookup(_ context.Context, query string) (*geocode.Result, error) {
	if query == "nowhere" {
		return nil, geocode.ErrNoMatch
	}
	return &geocode.Result{Lat: 18.559, Lon: 73.7868, DisplayName: "Baner, Pune"}, nil
}

type harness struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
	tasks  *inlineTasks
	mailer *notify.LogMailer
}

func newHarness(t *testing.T, perMinute int) *harness {
	t.Helper()
	db := testutil.NewDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	authService := auth.NewService(db, config.AuthConfig{
		AdminEmail:            adminEmail,
		AdminPasswordHash:     string(hash),
		SessionTimeoutMinutes: 240,
		MaxActiveSessions:     1,
	})
	if err := authService.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	tasks := &inlineTasks{}
	mailer := &notify.LogMailer{}
	images := storage.NewImageStore(t.TempDir(), "/images", 1)
	props := property.NewService(db)
	geocoder := geocode.NewGeocoder(geocode.NewMemoryCache(), fakeUpstream{}, 0)
	jobs := scheduler.NewScheduler(config.SchedulerConfig{}, scheduler.Jobs{Sessions: authService})

	engine := router.New(router.Options{
		CORSOrigins:    []string{"http://localhost:3000"},
		ImageDir:       images.Dir(),
		ImageURLPrefix: images.URLPrefix(),
		Limiter:        ratelimit.NewRateLimiter(perMinute, perMinute*10, true),
		Auth:           authService,
	}, router.Handlers{
		Health:     handlers.NewHealthHandler(pingDB{db}, nil, geocoder.State),
		Auth:       handlers.NewAuthHandler(authService),
		Properties: handlers.NewPropertyHandler(props, images),
		Search:     handlers.NewSearchHandler(nil, nil, geocoder),
		Content:    handlers.NewContentHandler(db),
		Inquiries:  handlers.NewInquiryHandler(db, notify.NewInquiryNotifier(db, mailer, officeEmail), tasks),
		Taxonomy:   handlers.NewTaxonomyHandler(db),
		Logs:       handlers.NewLogHandler(db),
		Admin:      handlers.NewAdminHandler(db, jobs, nil),
	})

	return &harness{t: t, db: db, engine: engine, tasks: tasks, mailer: mailer}
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login() string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"`+adminEmail+`","password":"`+adminPassword+`"}`, "")
	if rec.Code != http.StatusOK {
		h.t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body)
	}
	return decode(h.t, rec)["token"].(string)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	e, _ := decode(t, rec)["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestLoginSessionLifecycle(t *testing.T) {
	h := newHarness(t, 100)

	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}

	token := h.login()

	rec = h.do(http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"correct horse"}`, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("second login status = %d, want 403", rec.Code)
	}
	if _, ok := decode(t, rec)["active_session_ip"]; !ok {
		t.Error("403 body lacks active_session_ip")
	}

	rec = h.do(http.MethodGet, "/api/auth/check-session", "", "")
	if body := decode(t, rec); body["has_active_session"] != true {
		t.Errorf("check-session = %v", body)
	}

	if rec := h.do(http.MethodGet, "/api/contact", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("admin route without token = %d, want 401", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/contact", "", token); rec.Code != http.StatusOK {
		t.Errorf("admin route with token = %d, want 200", rec.Code)
	}

	// an anonymous logout names no session and revokes nothing
	if rec := h.do(http.MethodPost, "/api/auth/logout", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("anonymous logout status = %d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/contact", "", token); rec.Code != http.StatusOK {
		t.Errorf("token after anonymous logout = %d, want 200", rec.Code)
	}

	if rec := h.do(http.MethodPost, "/api/auth/logout", "", token); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/contact", "", token); rec.Code != http.StatusUnauthorized {
		t.Errorf("token after logout = %d, want 401", rec.Code)
	}
	// logout always succeeds
	if rec := h.do(http.MethodPost, "/api/auth/logout", `{"email":"nobody@example.com"}`, ""); rec.Code != http.StatusOK {
		t.Errorf("repeated logout = %d", rec.Code)
	}
}

func TestPropertyLifecycle(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()

	body := `{
		"name": "Lake View Residency",
		"property_type": "Apartment",
		"price": 7500000,
		"city": "Pune",
		"locality": "Baner",
		"bedrooms": 3,
		"features": ["Gym", "Pool"]
	}`
	if rec := h.do(http.MethodPost, "/api/properties", body, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d, want 401", rec.Code)
	}
	rec := h.do(http.MethodPost, "/api/properties", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	id := int(decode(t, rec)["id"].(float64))
	path := "/api/properties/" + itoa(id)

	rec = h.do(http.MethodGet, path, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	view := decode(t, rec)
	if view["property_category"] != "residential" || view["location"] != "Baner, Pune" {
		t.Errorf("view = %v", view)
	}

	rec = h.do(http.MethodPut, path, `{"price": 7800000, "status": "sold"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body)
	}
	rec = h.do(http.MethodGet, "/api/admin/properties/"+itoa(id)+"/history", "", token)
	if n := decode(t, rec)["count"].(float64); n < 2 {
		t.Errorf("history count = %v, want at least 2", n)
	}

	rec = h.do(http.MethodGet, "/api/properties?limit=500&status=sold", "", "")
	list := decode(t, rec)
	if list["limit"].(float64) != 100 || list["total"].(float64) != 1 {
		t.Errorf("list = %v", list)
	}

	if rec := h.do(http.MethodDelete, path, "", token); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := h.do(http.MethodGet, path, "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
	var features int64
	h.db.Model(&models.PropertyFeature{}).Where("property_id = ?", id).Count(&features)
	if features != 0 {
		t.Errorf("features left = %d", features)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()

	rec := h.do(http.MethodPost, "/api/properties", `{"name": "No city", "price": 10}`, token)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "validation_error" {
		t.Errorf("status = %d, code = %q", rec.Code, errorCode(t, rec))
	}
	if rec := h.do(http.MethodPost, "/api/properties", `{not json`, token); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d", rec.Code)
	}
	for _, price := range []string{`"NaN"`, `"Inf"`, `"Infinity"`} {
		body := `{"name":"Odd","price":` + price + `,"city":"Pune","locality":"Baner"}`
		if rec := h.do(http.MethodPost, "/api/properties", body, token); rec.Code != http.StatusBadRequest {
			t.Errorf("price %s = %d, want 400, body = %s", price, rec.Code, rec.Body)
		}
	}
	list := decode(t, h.do(http.MethodGet, "/api/properties", "", ""))
	if list["total"] != float64(0) {
		t.Errorf("stored rows after rejected creates = %v", list["total"])
	}
}

func TestDisabledCategoryRoutes(t *testing.T) {
	h := newHarness(t, 100)
	for _, path := range []string{"/api/residential-properties", "/api/plot-properties", "/api/commercial-properties"} {
		if rec := h.do(http.MethodPost, path, `{}`, ""); rec.Code != http.StatusForbidden {
			t.Errorf("POST %s = %d, want 403", path, rec.Code)
		}
	}
}

func TestUploadImageRoundTrip(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()

	rec := h.do(http.MethodPost, "/api/properties", `{"name":"Plot 7","property_type":"Residential Plot","price":100,"city":"Pune","locality":"Wakad","plot_area":1200}`, token)
	id := int(decode(t, rec)["id"].(float64))

	upload := `{"image":"data:image/png;base64,` + base64.StdEncoding.EncodeToString(pngBytes) +
		`","property_category":"plot","image_category":"masterplan","property_id":` + itoa(id) + `}`
	rec = h.do(http.MethodPost, "/api/upload-image", upload, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	url := body["image_url"].(string)
	if !strings.HasPrefix(url, "/images/") {
		t.Fatalf("image_url = %q", url)
	}
	if _, ok := body["image_id"]; !ok {
		t.Error("missing image_id")
	}

	rec = h.do(http.MethodGet, url, "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != string(pngBytes) {
		t.Errorf("GET %s = %d, %d bytes", url, rec.Code, rec.Body.Len())
	}

	view := decode(t, h.do(http.MethodGet, "/api/properties/"+itoa(id), "", ""))
	if view["primary_image"] != url {
		t.Errorf("primary_image = %v, want %s", view["primary_image"], url)
	}

	bad := `{"image":"data:image/png;base64,aGVsbG8=","property_category":"plot"}`
	if rec := h.do(http.MethodPost, "/api/upload-image", bad, token); rec.Code != http.StatusBadRequest {
		t.Errorf("non-image upload = %d, want 400", rec.Code)
	}
	wrongCategory := `{"image":"data:image/png;base64,` + base64.StdEncoding.EncodeToString(pngBytes) + `","property_category":"villa"}`
	if rec := h.do(http.MethodPost, "/api/upload-image", wrongCategory, token); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category = %d, want 400", rec.Code)
	}
}

func TestContactVisitRequest(t *testing.T) {
	h := newHarness(t, 100)

	body := `{"name":"Asha","email":"asha@example.com","subject":"Schedule Visit","message":"Hi\nPreferred Date: 2024-05-01"}`
	rec := h.do(http.MethodPost, "/api/contact", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("contact status = %d, body = %s", rec.Code, rec.Body)
	}

	var inq models.ContactInquiry
	if err := h.db.First(&inq).Error; err != nil {
		t.Fatal(err)
	}
	if inq.VisitDate == nil || *inq.VisitDate != "2024-05-01" {
		t.Errorf("visit_date = %v", inq.VisitDate)
	}
	if inq.Status != models.InquiryStatusNew || inq.EmailedAt == nil {
		t.Errorf("inquiry = %+v", inq)
	}

	sent := h.mailer.Sent()
	if len(sent) != 1 || sent[0].To != officeEmail || !strings.Contains(sent[0].Text, "2024-05-01") {
		t.Fatalf("sent = %+v", sent)
	}

	if rec := h.do(http.MethodPost, "/api/contact", `{"name":"Asha","email":"not-an-email"}`, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad email = %d, want 400", rec.Code)
	}
}

func TestInquiryAdmin(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()
	h.do(http.MethodPost, "/api/contact", `{"name":"Ravi","email":"ravi@example.com","message":"Price?"}`, "")

	rec := h.do(http.MethodGet, "/api/contact?status=new", "", token)
	items := decode(t, rec)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
	id := int(items[0].(map[string]any)["id"].(float64))

	if rec := h.do(http.MethodPut, "/api/contact/"+itoa(id), `{"status":"archived"}`, token); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status = %d", rec.Code)
	}
	if rec := h.do(http.MethodPut, "/api/contact/"+itoa(id), `{"status":"contacted"}`, token); rec.Code != http.StatusOK {
		t.Errorf("status update = %d", rec.Code)
	}
	if rec := h.do(http.MethodDelete, "/api/contact/"+itoa(id), "", token); rec.Code != http.StatusOK {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := h.do(http.MethodDelete, "/api/contact/"+itoa(id), "", token); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestPublicWritesAreRateLimited(t *testing.T) {
	h := newHarness(t, 2)
	body := `{"name":"Spam","email":"spam@example.com"}`
	for i := 0; i < 2; i++ {
		if rec := h.do(http.MethodPost, "/api/contact", body, ""); rec.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := h.do(http.MethodPost, "/api/contact", body, "")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("status = %d, Retry-After = %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestLogIngestAlwaysSucceeds(t *testing.T) {
	h := newHarness(t, 100)
	tests := []struct {
		name string
		body string
	}{
		{"valid", `{"level":"warn","source":"web","message":"slow page","context":{"ms":900}}`},
		{"malformed", `{"level":`},
		{"empty message", `{"level":"info"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/logs", tt.body, "")
			if rec.Code != http.StatusOK || decode(t, rec)["success"] != true {
				t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
			}
		})
	}

	var stored models.Log
	if err := h.db.Where("source = ?", "web").First(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Level != models.LogLevelWarn || !strings.Contains(stored.Context, "900") {
		t.Errorf("stored = %+v", stored)
	}
}

func TestTestimonialModeration(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()

	rec := h.do(http.MethodPost, "/api/testimonials", `{"client_name":"Meera","content":"Smooth purchase","rating":5,"is_approved":true}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit = %d, body = %s", rec.Code, rec.Body)
	}
	id := int(decode(t, rec)["id"].(float64))

	if n := decode(t, h.do(http.MethodGet, "/api/testimonials", "", ""))["count"]; n != float64(0) {
		t.Errorf("public count before approval = %v", n)
	}
	if rec := h.do(http.MethodPut, "/api/testimonials/"+itoa(id), `{"is_approved":true}`, token); rec.Code != http.StatusOK {
		t.Fatalf("approve = %d", rec.Code)
	}
	if n := decode(t, h.do(http.MethodGet, "/api/testimonials", "", ""))["count"]; n != float64(1) {
		t.Errorf("public count after approval = %v", n)
	}
	if rec := h.do(http.MethodPost, "/api/testimonials", `{"client_name":"X","content":"Y","rating":9}`, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("rating 9 = %d, want 400", rec.Code)
	}
}

func TestBlogSlugs(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()

	post := `{"title":"Buying in Pune","content":"<p>Five things to check.</p><script>x()</script>","is_published":true}`
	first := decode(t, h.do(http.MethodPost, "/api/blogs", post, token))
	second := decode(t, h.do(http.MethodPost, "/api/blogs", post, token))
	if first["slug"] != "buying-in-pune" || second["slug"] != "buying-in-pune-2" {
		t.Errorf("slugs = %v, %v", first["slug"], second["slug"])
	}
	if first["excerpt"] != "Five things to check." {
		t.Errorf("excerpt = %v", first["excerpt"])
	}

	if rec := h.do(http.MethodGet, "/api/blogs/buying-in-pune", "", ""); rec.Code != http.StatusOK {
		t.Errorf("by slug = %d", rec.Code)
	}
	id := int(first["id"].(float64))
	if rec := h.do(http.MethodGet, "/api/blogs/"+itoa(id), "", ""); rec.Code != http.StatusOK {
		t.Errorf("by id = %d", rec.Code)
	}
	h.do(http.MethodPut, "/api/blogs/"+itoa(id), `{"is_published":false}`, token)
	if rec := h.do(http.MethodGet, "/api/blogs/"+itoa(id), "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unpublished = %d, want 404", rec.Code)
	}
}

func TestTaxonomy(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()

	rec := h.do(http.MethodPost, "/api/cities", `{"name":"Pune","state":"Maharashtra"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create city = %d, body = %s", rec.Code, rec.Body)
	}
	cityID := int(decode(t, rec)["id"].(float64))
	if rec := h.do(http.MethodPost, "/api/cities", `{"name":"pune"}`, token); rec.Code != http.StatusConflict {
		t.Errorf("duplicate city = %d, want 409", rec.Code)
	}

	h.do(http.MethodPost, "/api/localities", `{"city_id":`+itoa(cityID)+`,"name":"Baner"}`, token)
	if rec := h.do(http.MethodPost, "/api/localities", `{"city_id":999,"name":"Nowhere"}`, token); rec.Code != http.StatusNotFound {
		t.Errorf("locality in unknown city = %d, want 404", rec.Code)
	}
	if n := decode(t, h.do(http.MethodGet, "/api/localities?city_id="+itoa(cityID), "", ""))["count"]; n != float64(1) {
		t.Errorf("localities = %v", n)
	}

	if rec := h.do(http.MethodDelete, "/api/cities/"+itoa(cityID), "", token); rec.Code != http.StatusOK {
		t.Fatalf("delete city = %d", rec.Code)
	}
	if n := decode(t, h.do(http.MethodGet, "/api/localities?city_id="+itoa(cityID), "", ""))["count"]; n != float64(0) {
		t.Errorf("localities after city delete = %v", n)
	}

	cats := decode(t, h.do(http.MethodGet, "/api/categories?property_category=plot", "", ""))
	if cats["count"] != float64(2) {
		t.Errorf("plot categories = %v", cats["count"])
	}
	if rec := h.do(http.MethodPost, "/api/categories", `{"name":"Farmhouse","property_category":"farm"}`, token); rec.Code != http.StatusBadRequest {
		t.Errorf("bad category = %d", rec.Code)
	}
}

func TestJSONPCallback(t *testing.T) {
	h := newHarness(t, 100)

	rec := h.do(http.MethodGet, "/api/unit-types?callback=renderTypes", "", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "renderTypes(") {
		t.Errorf("jsonp = %d %q", rec.Code, rec.Body.String())
	}
	if rec := h.do(http.MethodGet, "/api/unit-types?callback=alert(1)", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid callback = %d, want 400", rec.Code)
	}
}

func TestSearchAndGeocode(t *testing.T) {
	h := newHarness(t, 100)

	if rec := h.do(http.MethodGet, "/api/search?q=baner", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("search without index = %d, want 503", rec.Code)
	}

	rec := h.do(http.MethodGet, "/api/geocode?q=Baner%20Pune", "", "")
	if rec.Code != http.StatusOK || decode(t, rec)["display_name"] != "Baner, Pune" {
		t.Errorf("geocode = %d %s", rec.Code, rec.Body)
	}
	if rec := h.do(http.MethodGet, "/api/geocode?q=nowhere", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("no match = %d, want 404", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/geocode", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("empty query = %d, want 400", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	h := newHarness(t, 100)
	token := h.login()
	h.do(http.MethodPost, "/api/properties", `{"name":"Shop 4","property_type":"Shop","price":50,"city":"Pune","locality":"Camp"}`, token)
	h.do(http.MethodPost, "/api/visitors", `{"name":"Lead","phone":"98200","source":"brochure"}`, "")

	tests := []struct {
		path   string
		method string
		status int
	}{
		{"/api/admin/stats/overview", http.MethodGet, http.StatusOK},
		{"/api/admin/stats/properties", http.MethodGet, http.StatusOK},
		{"/api/admin/stats/inquiries", http.MethodGet, http.StatusOK},
		{"/api/admin/stats/visitors", http.MethodGet, http.StatusOK},
		{"/api/admin/application-metrics", http.MethodGet, http.StatusOK},
		{"/api/admin/system-metrics", http.MethodGet, http.StatusOK},
		{"/api/admin/task-failures", http.MethodGet, http.StatusOK},
		{"/api/admin/changes/recent", http.MethodGet, http.StatusOK},
		{"/api/admin/cleanup/scan", http.MethodGet, http.StatusOK},
		{"/api/admin/cleanup/run", http.MethodPost, http.StatusOK},
		{"/api/admin/cleanup/logs", http.MethodGet, http.StatusOK},
		{"/api/admin/search/reindex", http.MethodPost, http.StatusServiceUnavailable},
		{"/api/admin/jobs/session_sweep/run", http.MethodPost, http.StatusOK},
		{"/api/admin/jobs/bogus/run", http.MethodPost, http.StatusNotFound},
		{"/api/visitors", http.MethodGet, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := h.do(tt.method, tt.path, "", token)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.status, rec.Body)
			}
		})
	}

	stats := decode(t, h.do(http.MethodGet, "/api/admin/stats/properties", "", token))
	byCategory, _ := stats["by_category"].([]any)
	if len(byCategory) != 1 || byCategory[0].(map[string]any)["key"] != "commercial" {
		t.Errorf("by_category = %v", stats["by_category"])
	}

	overview := decode(t, h.do(http.MethodGet, "/api/admin/stats/overview", "", token))
	if overview["properties"] != float64(1) {
		t.Errorf("overview properties = %v", overview["properties"])
	}
	if rec := h.do(http.MethodGet, "/api/admin/stats/overview", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("overview without token = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, 100)
	rec := h.do(http.MethodGet, "/health", "", "")
	body := decode(t, rec)
	if rec.Code != http.StatusOK || body["database"] != "ok" || body["search"] != "disabled" {
		t.Errorf("health = %d %v", rec.Code, body)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
