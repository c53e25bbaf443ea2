package controller_test

import (
	"filescanner/pkg/controller"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func pprofRouter() *mux.Router {
	r := mux.NewRouter()
	controller.RegisterPprof(r)

	return r
}

func TestRegisterPprof_Index(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))

	res := rec.Result()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("Content-Type"))
}

func TestRegisterPprof_Cmdline(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))

	require.Equal(t, http.StatusOK, rec.Result().StatusCode)
}

func TestRegisterPprof_NamedProfile(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/goroutine?debug=1", nil))

	require.Equal(t, http.StatusOK, rec.Result().StatusCode)
}
