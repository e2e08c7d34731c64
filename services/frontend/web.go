package frontend

import (
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BluCollarBookings/backend-server/lib/mylog"
)

//go:embed static
var staticFolder embed.FS

type webService struct {
	logger mylog.Logger
}

func NewService() *webService {
	return &webService{
		logger: mylog.New("frontend"),
	}
}

// RegisterEndpoints serves the embedded static site as a catch-all. It must
// be registered after the api routes or it will shadow them.
func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	staticFS, err := fs.Sub(staticFolder, "static")
	if err != nil {
		return err
	}

	router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))

	return nil
}
