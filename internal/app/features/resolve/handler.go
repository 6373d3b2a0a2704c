// internal/app/features/resolve/handler.go
//
// Package resolve exposes the URL rewrite table to clients that need to
// turn a short link into a page target and canonical path themselves.
package resolve

import (
	"net/http"

	uierrors "github.com/dalemusser/preemhub/internal/app/features/errors"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"go.uber.org/zap"
)

type Handler struct {
	Rewriter *urlrewrite.Rewriter
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(rw *urlrewrite.Rewriter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Rewriter: rw, ErrLog: errLog, Log: logger}
}

// ServeResolve handles GET /api/resolve?url=. URLs no rule matches resolve
// to themselves with matched=false.
//
//	{ "pageTarget": "/race", "canonicalPath": "organizations/…/races/…", "matched": true, "pattern": "/:org/:series/:event/:race" }
//
// With ?path= instead it answers the reverse question: the short URL of a
// canonical document path.
func (h *Handler) ServeResolve(w http.ResponseWriter, r *http.Request) {
	if p := r.URL.Query().Get("path"); p != "" {
		h.serveShortURL(w, r, p)
		return
	}
	res, err := h.Rewriter.Resolve(r.URL.Query().Get("url"))
	if err != nil {
		h.ErrLog.Write(w, r, "resolve url", err)
		return
	}
	h.Log.Debug("url resolved",
		zap.String("page", res.PageTarget),
		zap.String("path", res.CanonicalPath),
		zap.Bool("matched", res.Matched))
	uierrors.WriteJSON(w, http.StatusOK, res)
}

type shortURL struct {
	URL           string `json:"url"`
	CanonicalPath string `json:"canonicalPath"`
}

func (h *Handler) serveShortURL(w http.ResponseWriter, r *http.Request, path string) {
	u, err := docpath.ToURLPath(path)
	if err != nil {
		h.ErrLog.Write(w, r, "short url", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, shortURL{URL: "/" + u, CanonicalPath: path})
}
