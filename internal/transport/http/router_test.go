package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/geocode"
	"github.com/velotrail/velotrail/internal/ports"
	"github.com/velotrail/velotrail/internal/ports/mocks"
	rest "github.com/velotrail/velotrail/internal/transport/http"
	"github.com/velotrail/velotrail/internal/upload"
	"github.com/velotrail/velotrail/internal/usecase"
)

type noopLogger struct{}

func (noopLogger) Debugf(context.Context, string, ...any) {}
func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

type routerMocks struct {
	trips  *mocks.MockTripReadService
	places *mocks.MockPlaceResolver
	photos *mocks.MockPhotoManager
}

func newRouter(t *testing.T) (*gin.Engine, routerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := routerMocks{
		trips:  mocks.NewMockTripReadService(ctrl),
		places: mocks.NewMockPlaceResolver(ctrl),
		photos: mocks.NewMockPhotoManager(ctrl),
	}
	h := rest.NewHandler(m.trips, m.places, m.photos, noopLogger{}, 0)
	return rest.NewRouter(h, "test"), m
}

func TestGetTrip_Found(t *testing.T) {
	r, m := newRouter(t)

	want := &domain.Trip{TripUID: "trip-1", Title: "Утренний круг"}
	m.trips.EXPECT().GetTrip(gomock.Any(), "trip-1").Return(want, nil)

	req := httptest.NewRequest(http.MethodGet, "/trip/trip-1", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var got domain.Trip
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.TripUID != "trip-1" {
		t.Fatalf("wrong trip uid: %v", got)
	}
}

func TestGetTrip_NotFound(t *testing.T) {
	r, m := newRouter(t)

	m.trips.EXPECT().GetTrip(gomock.Any(), "missing").Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/trip/missing", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestGetTrip_InternalError(t *testing.T) {
	r, m := newRouter(t)

	m.trips.EXPECT().GetTrip(gomock.Any(), "intErr").Return(nil, errors.New("db error"))

	req := httptest.NewRequest(http.MethodGet, "/trip/intErr", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestListTripsByUser_OK_Default(t *testing.T) {
	r, m := newRouter(t)

	ret := []*domain.Trip{{TripUID: "a"}, {TripUID: "b"}}
	m.trips.EXPECT().TripsByUser(gomock.Any(), "user-1", 20, 0).Return(ret, nil)

	req := httptest.NewRequest(http.MethodGet, "/user/user-1/trips", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var got []*domain.Trip
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 2 || got[0].TripUID != "a" || got[1].TripUID != "b" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestListTripsByUser_OK_WithParams(t *testing.T) {
	r, m := newRouter(t)

	ret := []*domain.Trip{{TripUID: "x"}}
	m.trips.EXPECT().TripsByUser(gomock.Any(), "user-9", 3, 7).Return(ret, nil)

	req := httptest.NewRequest(http.MethodGet, "/user/user-9/trips?limit=3&offset=7", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestListTripsByUser_LimitClamped(t *testing.T) {
	r, m := newRouter(t)

	// limit выше максимума срезается до 100
	m.trips.EXPECT().TripsByUser(gomock.Any(), "user-1", 100, 0).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/user/user-1/trips?limit=5000", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReverseGeocode_OK(t *testing.T) {
	r, m := newRouter(t)

	place := &domain.Place{Lat: 40.416775, Lon: -3.703790, Name: "Madrid"}
	m.places.EXPECT().Resolve(gomock.Any(), 40.416775, -3.703790).Return(place, nil)

	req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?lat=40.416775&lon=-3.703790", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var got domain.Place
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Name != "Madrid" {
		t.Fatalf("unexpected place: %+v", got)
	}
}

func TestReverseGeocode_BadCoordinates(t *testing.T) {
	r, _ := newRouter(t)

	for _, q := range []string{
		"",
		"lat=abc&lon=0",
		"lat=91&lon=0",
		"lat=0&lon=181",
		"lat=0",
	} {
		req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?"+q, http.NoBody)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("query %q: want 400, got %d", q, w.Code)
		}
	}
}

func TestReverseGeocode_NoPlace(t *testing.T) {
	r, m := newRouter(t)

	m.places.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, geocode.ErrNoPlace)

	req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?lat=0&lon=0", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestGeoCacheStats_OK(t *testing.T) {
	r, m := newRouter(t)

	m.places.EXPECT().CacheStats(gomock.Any()).
		Return(domain.CacheStats{Size: 3, MaxSize: 100, Hits: 10, Misses: 4})

	req := httptest.NewRequest(http.MethodGet, "/geocode/cache/stats", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var got domain.CacheStats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Size != 3 || got.Hits != 10 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

// multipartBody — собирает multipart-форму с файлами в поле photos.
func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, name := range names {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="photos"; filename="`+name+`"`)
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte("jpeg-bytes")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestAttachPhotos_OK(t *testing.T) {
	r, m := newRouter(t)

	m.photos.EXPECT().
		AttachPhotos(gomock.Any(), "trip-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, files []*upload.File) (upload.BatchResult, error) {
			if len(files) != 2 {
				t.Fatalf("want 2 files, got %d", len(files))
			}
			if files[0].Name != "a.jpg" || files[0].ContentType != "image/jpeg" {
				t.Fatalf("file meta not parsed: %+v", files[0])
			}
			if files[0].Size == 0 || len(files[0].Data) == 0 {
				t.Fatalf("file body not read: %+v", files[0])
			}
			return upload.BatchResult{Items: []upload.ItemView{
				{ID: "1", Name: "a.jpg", Status: upload.StatusSuccess, Progress: 100, ServerID: "ph-1"},
				{ID: "2", Name: "b.jpg", Status: upload.StatusSuccess, Progress: 100, ServerID: "ph-2"},
			}}, nil
		})

	body, contentType := multipartBody(t, "a.jpg", "b.jpg")
	req := httptest.NewRequest(http.MethodPost, "/trip/trip-1/photos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var got upload.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].ServerID != "ph-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestAttachPhotos_TripNotFound(t *testing.T) {
	r, m := newRouter(t)

	m.photos.EXPECT().
		AttachPhotos(gomock.Any(), "missing", gomock.Any()).
		Return(upload.BatchResult{}, usecase.ErrTripNotFound)

	body, contentType := multipartBody(t, "a.jpg")
	req := httptest.NewRequest(http.MethodPost, "/trip/missing/photos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestAttachPhotos_NoFiles(t *testing.T) {
	r, _ := newRouter(t)

	body, contentType := multipartBody(t) // форма без файлов
	req := httptest.NewRequest(http.MethodPost, "/trip/trip-1/photos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestRemovePhoto_NoContent(t *testing.T) {
	r, m := newRouter(t)

	m.photos.EXPECT().RemovePhoto(gomock.Any(), "ph-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/photo/ph-1", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestRemovePhoto_NotFound(t *testing.T) {
	r, m := newRouter(t)

	m.photos.EXPECT().RemovePhoto(gomock.Any(), "missing").Return(usecase.ErrPhotoNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/photo/missing", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReorderPhotos_NoContent(t *testing.T) {
	r, m := newRouter(t)

	ids := []string{"b", "a", "c"}
	m.photos.EXPECT().ReorderPhotos(gomock.Any(), "trip-1", ids).Return(nil)

	raw, _ := json.Marshal(map[string]any{"photo_ids": ids})
	req := httptest.NewRequest(http.MethodPut, "/trip/trip-1/photos/order", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReorderPhotos_Conflict(t *testing.T) {
	r, m := newRouter(t)

	m.photos.EXPECT().ReorderPhotos(gomock.Any(), "trip-1", gomock.Any()).
		Return(ports.ErrPhotoOrderConflict)

	raw, _ := json.Marshal(map[string]any{"photo_ids": []string{"a"}})
	req := httptest.NewRequest(http.MethodPut, "/trip/trip-1/photos/order", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReorderPhotos_EmptyBody(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/trip/trip-1/photos/order", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestNoRoute_404(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/no-such-route", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestMethodNotAllowed_405(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/photo/123", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestPing_200(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestMetrics_200(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	// Содержимое может меняться — достаточно проверить, что не пусто.
	if w.Body.Len() == 0 {
		t.Fatal("metrics body is empty")
	}
}
