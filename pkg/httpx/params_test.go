package httpx_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/velotrail/velotrail/pkg/httpx"
)

func ginCtx(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestClampInt(t *testing.T) {
	cases := []struct {
		v, lo, hi, want int
	}{
		{5, 1, 10, 5},
		{0, 1, 10, 1},
		{11, 1, 10, 10},
		{-3, 0, 100, 0},
	}
	for _, tc := range cases {
		if got := httpx.ClampInt(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("ClampInt(%d,%d,%d)=%d, want %d", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestParseLimitOffset_Defaults(t *testing.T) {
	c := ginCtx(t, "/user/u1/trips")
	limit, offset := httpx.ParseLimitOffset(c, 20, 100)
	if limit != 20 || offset != 0 {
		t.Fatalf("want 20/0, got %d/%d", limit, offset)
	}
}

func TestParseLimitOffset_ClampsAboveMax(t *testing.T) {
	c := ginCtx(t, "/user/u1/trips?limit=1000&offset=7")
	limit, offset := httpx.ParseLimitOffset(c, 20, 100)
	if limit != 100 || offset != 7 {
		t.Fatalf("want 100/7, got %d/%d", limit, offset)
	}
}

func TestParseLimitOffset_NegativeOffsetIgnored(t *testing.T) {
	c := ginCtx(t, "/user/u1/trips?offset=-5")
	_, offset := httpx.ParseLimitOffset(c, 20, 100)
	if offset != 0 {
		t.Fatalf("negative offset must fall back to 0, got %d", offset)
	}
}

func TestParseLatLon_OK(t *testing.T) {
	c := ginCtx(t, "/geocode/reverse?lat=40.416775&lon=-3.703790")
	lat, lon, err := httpx.ParseLatLon(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat != 40.416775 || lon != -3.703790 {
		t.Fatalf("wrong coords: %v %v", lat, lon)
	}
}

func TestParseLatLon_Invalid(t *testing.T) {
	for _, target := range []string{
		"/geocode/reverse?lat=abc&lon=1",
		"/geocode/reverse?lat=91&lon=1",
		"/geocode/reverse?lat=1&lon=181",
		"/geocode/reverse?lon=1",
	} {
		c := ginCtx(t, target)
		if _, _, err := httpx.ParseLatLon(c); err == nil {
			t.Fatalf("expected error for %s", target)
		}
	}
}
