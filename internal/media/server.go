package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/dbmongo"
	"gochat/internal/logger"
)

type ObjectReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, *dbmongo.StoredObject, error)
}

// HTTPServer serves objects behind signed, expiring tokens.
type HTTPServer struct {
	storage ObjectReader
	signer  *common.TokenSigner
	now     func() time.Time
	router  *mux.Router
}

func NewHTTPServer(storage ObjectReader, signer *common.TokenSigner) *HTTPServer {
	s := &HTTPServer{
		storage: storage,
		signer:  signer,
		now:     time.Now,
	}

	router := mux.NewRouter()
	router.HandleFunc("/media/{token}", s.serveFile).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = router

	return s
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	objectPath, expiresAt, err := s.signer.VerifyMediaToken(token)
	if err != nil {
		http.Error(w, "link expired or invalid", http.StatusForbidden)
		return
	}

	reader, obj, err := s.storage.Open(r.Context(), objectPath)
	if err != nil {
		if errors.Is(err, dbmongo.ErrObjectNotFound) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		logger.Log.Error("open object failed", zap.String("storage_path", objectPath), zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusBadGateway)
		return
	}
	defer reader.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = common.ContentTypeForName(objectPath)
	}
	remaining := int64(math.Max(0, math.Floor(expiresAt.Sub(s.now()).Seconds())))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", remaining))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(objectPath)))

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, reader); err != nil {
		logger.Log.Warn("error streaming file", zap.String("storage_path", objectPath), zap.Error(err))
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
