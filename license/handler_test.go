package license

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/organization"
	"github.com/kbukum/licensing/server/middleware"
)

func newRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	engine := gin.New()
	NewHandler(f.svc, logger.Nop()).Register(engine)
	return middleware.Language(f.svc.catalog)(engine), f
}

func do(h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorBody {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestHandler_Get(t *testing.T) {
	h, f := newRouter(t)

	rec := do(h, http.MethodGet, "/v1/organization/"+orgID+"/license/"+licenseID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	l := decodeData[License](t, rec)
	if l.OrganizationName != ostock.Name || l.Comment != comment {
		t.Errorf("license = %+v", l)
	}

	rec = do(h, http.MethodGet, "/v1/organization/"+orgID+"/license/"+licenseID+"/"+organization.ModeFeign, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.feign.hits.Load() != 1 {
		t.Errorf("feign hits = %d, want 1", f.feign.hits.Load())
	}
}

func TestHandler_GetMissing(t *testing.T) {
	h, _ := newRouter(t)

	rec := do(h, http.MethodGet, "/v1/organization/"+orgID+"/license/missing", nil, "Accept-Language", "es-ES,es;q=0.9")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Code != apperrors.ErrCodeNotFound {
		t.Errorf("code = %s", body.Code)
	}
	want := "No se encontró la licencia con id missing para la organización " + orgID
	if body.Message != want {
		t.Errorf("message = %q, want %q", body.Message, want)
	}
}

func TestHandler_List(t *testing.T) {
	h, _ := newRouter(t)

	rec := do(h, http.MethodGet, "/v1/organization/"+orgID+"/license/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeData[[]License](t, rec); len(got) != 1 || got[0].LicenseID != licenseID {
		t.Errorf("list = %+v", got)
	}
}

func TestHandler_Create(t *testing.T) {
	h, _ := newRouter(t)
	path := "/v1/organization/" + orgID + "/license"

	rec := do(h, http.MethodPost, path, CreateRequest{ProductName: "CustomerPro", LicenseType: "complete"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if l := decodeData[License](t, rec); l.LicenseID == "" || l.OrganizationID != orgID {
		t.Errorf("created = %+v", l)
	}

	rec = do(h, http.MethodPost, path, CreateRequest{LicenseType: "complete"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for invalid body = %d, want 400", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != apperrors.ErrCodeValidation {
		t.Errorf("code = %s, want %s", body.Code, apperrors.ErrCodeValidation)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{not json"))
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	if out.Code != http.StatusBadRequest {
		t.Errorf("status for malformed body = %d, want 400", out.Code)
	}
}

func TestHandler_Update(t *testing.T) {
	h, _ := newRouter(t)
	path := "/v1/organization/" + orgID + "/license"

	rec := do(h, http.MethodPut, path, UpdateRequest{LicenseID: licenseID, ProductName: "Ostock Pro", LicenseType: "full"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if l := decodeData[License](t, rec); l.ProductName != "Ostock Pro" {
		t.Errorf("updated = %+v", l)
	}

	rec = do(h, http.MethodPut, path, UpdateRequest{LicenseID: "missing", ProductName: "p", LicenseType: "t"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_Delete(t *testing.T) {
	h, _ := newRouter(t)

	rec := do(h, http.MethodDelete, "/v1/organization/"+orgID+"/license/"+licenseID, nil, "Accept-Language", "es")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeData[map[string]string](t, rec)
	want := "Eliminando la licencia con id " + licenseID + " de la organización " + orgID
	if got["message"] != want {
		t.Errorf("message = %q, want %q", got["message"], want)
	}
}

func TestHandler_RejectsOversizedPathID(t *testing.T) {
	h, f := newRouter(t)
	long := strings.Repeat("x", 37)

	rec := do(h, http.MethodGet, "/v1/organization/"+long+"/license/"+licenseID, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != apperrors.ErrCodeValidation {
		t.Errorf("code = %s", body.Code)
	}
	if f.rest.hits.Load() != 0 {
		t.Errorf("client invoked for rejected request")
	}
}
