// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/require"
)

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		doc, err := openapi3.NewLoader().LoadFromData(OpenAPISpec())
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

func validateOpenAPIResponse(t *testing.T, doc *openapi3.T, req *http.Request, rr *httptest.ResponseRecorder) {
	t.Helper()
	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")

	route, pathParams, err := router.FindRoute(req)
	require.NoError(t, err, "openapi route lookup")

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rr.Code,
		Header: rr.Header(),
	}
	input.SetBodyBytes(rr.Body.Bytes())

	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input),
		"openapi response validation for %s %s -> %d: %s", req.Method, req.URL, rr.Code, rr.Body.String())
}

func TestContract_ResponsesMatchOpenAPI(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	ts := newTestServer(t, Options{})

	steps := []struct {
		method, target, body string
		wantCode             int
	}{
		{http.MethodGet, "/status", "", http.StatusOK},
		{http.MethodGet, "/preset", "", http.StatusNotFound},
		{http.MethodPost, "/stop", "", http.StatusBadRequest},
		{http.MethodPost, "/start", `{"vendors":0}`, http.StatusBadRequest},
		{http.MethodPost, "/start", validStartBody, http.StatusOK},
		{http.MethodPost, "/start", validStartBody, http.StatusBadRequest},
		{http.MethodGet, "/status?tail=2", "", http.StatusOK},
		{http.MethodGet, "/preset", "", http.StatusOK},
		{http.MethodPost, "/stop", "", http.StatusOK},
		{http.MethodGet, "/status", "", http.StatusOK},
		{http.MethodPost, "/reset", "", http.StatusOK},
		{http.MethodGet, "/status?tail=-3", "", http.StatusBadRequest},
	}

	for _, st := range steps {
		var req *http.Request
		if st.body != "" {
			req = httptest.NewRequest(st.method, st.target, strings.NewReader(st.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(st.method, st.target, nil)
		}
		rec := httptest.NewRecorder()
		ts.Handler().ServeHTTP(rec, req)
		require.Equal(t, st.wantCode, rec.Code, "%s %s: %s", st.method, st.target, rec.Body.String())

		validateOpenAPIResponse(t, doc, req, rec)
	}
}
