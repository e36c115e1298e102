package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	. "github.com/smartystreets/goconvey/convey"
)

func get(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux)

			Convey("Then it should render the main heading at /", func() {
				w := get(mux, http.MethodGet, "/")

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Header().Get("Cache-Control"), ShouldEqual, "no-cache")
				So(w.Body.String(), ShouldContainSubstring, `<h1 class="title">Go + Vanilla JS</h1>`)
			})

			Convey("And it should include the counter and API card", func() {
				body := get(mux, http.MethodGet, "/").Body.String()

				So(body, ShouldContainSubstring, "Count is 0")
				So(body, ShouldContainSubstring, "Refresh API")
				So(body, ShouldContainSubstring, `id="api-response"`)
			})

			Convey("And it should serve the script that fetches the API", func() {
				w := get(mux, http.MethodGet, "/assets/app.js")

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Cache-Control"), ShouldEqual, "public, max-age=3600")
				So(w.Body.String(), ShouldContainSubstring, "fetch('/api/hello'")
				So(w.Body.String(), ShouldContainSubstring, "Loading...")
			})

			Convey("And it should serve the stylesheet and logos", func() {
				So(get(mux, http.MethodGet, "/assets/app.css").Code, ShouldEqual, http.StatusOK)
				So(get(mux, http.MethodGet, "/assets/go.svg").Code, ShouldEqual, http.StatusOK)
				So(get(mux, http.MethodGet, "/assets/js.svg").Code, ShouldEqual, http.StatusOK)
			})

			Convey("And it should fall back to index.html for client routes", func() {
				w := get(mux, http.MethodGet, "/some/client/route")

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Go + Vanilla JS")
			})

			Convey("And it should serve index.html directly without redirecting", func() {
				w := get(mux, http.MethodGet, "/index.html")

				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And it should 404 on missing assets", func() {
				w := get(mux, http.MethodGet, "/assets/missing.js")

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And it should answer HEAD without a body", func() {
				w := get(mux, http.MethodHead, "/")

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.Len(), ShouldEqual, 0)
			})

			Convey("And it should reject writes", func() {
				w := get(mux, http.MethodPost, "/")

				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			})
		})
	})
}

func TestRootHandlerWithoutIndex(t *testing.T) {
	Convey("Given a file system without index.html", t, func() {
		h := NewRootHandler(fstest.MapFS{"app.js": {Data: []byte("x")}})

		Convey("When requesting the root", func() {
			w := get(h, http.MethodGet, "/")

			Convey("Then it should fail with a server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, ErrServe.Error())
			})
		})

		Convey("When requesting an existing file", func() {
			w := get(h, http.MethodGet, "/app.js")

			Convey("Then it should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "x")
			})
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		ctx := context.Background()

		Convey("When registering the site handler", func() {
			Convey("Then it should panic", func() {
				So(func() {
					Register(ctx, nil)
				}, ShouldPanic)
			})
		})
	})
}
