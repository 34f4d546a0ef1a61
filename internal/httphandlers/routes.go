package httphandlers

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"net/http"
)

func Routes(h *ApiHandler) chi.Router {
	r := chi.NewRouter()
	r.Route("/v1", func(rr chi.Router) {
		rr.Use(h.authenticate)

		rr.Post("/clients", h.CreateClient)
		rr.Get("/clients", h.ListClients)
		rr.Delete("/clients/{client_id}", h.DeleteClient)
		rr.Post("/sites", h.CreateSite)
		rr.Get("/clients/{client_id}/sites", h.ListSites)
		rr.Delete("/sites/{site_id}", h.DeleteSite)
		rr.Post("/images", h.CreateImage)
		rr.Get("/images", h.ListImages)
		rr.Get("/images/{image_id}", h.GetImage)
		rr.Get("/images/{image_id}/snapshots", h.ListSnapshots)
		rr.Get("/images/{image_id}/records", h.ListBackupRecords)

		rr.Post("/credentials", h.IssueCredential)
		rr.Post("/credentials/acknowledge", h.AcknowledgeCredential)

		rr.Post("/backups", h.StartBackup)
		rr.Post("/restores", h.StartRestore)
		rr.Get("/operations/{operation_id}", h.GetOperation)
		rr.Get("/operations/{operation_id}/events", h.StreamOperation)
		rr.Post("/operations/{operation_id}/cancel", h.CancelOperation)

		rr.Get("/h", func(writer http.ResponseWriter, request *http.Request) {
			ok(writer, "healthy", struct{}{})
		})
	})
	r.Get("/ping", h.Ping)
	return r
}

func (handler *ApiHandler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := handler.mn.ValidateToken(r.Header.Get(authorizationHeader)); err != nil {
			unauthorized(w, errors.New("access denied"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
