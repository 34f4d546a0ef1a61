package httphandlers

import (
	"context"
	"encoding/json"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"imagevault/internal/eventbus"
	"imagevault/internal/manager"
	"imagevault/internal/orchestrator"
	"imagevault/internal/types"
	"imagevault/logger"
	"net/http"
	"time"
)

type (
	ApiHandler struct {
		mn manager.Manager
		eb eventbus.Bus
	}
)

func NewApiHandler(mn manager.Manager, eb eventbus.Bus) *ApiHandler {
	return &ApiHandler{mn: mn, eb: eb}
}

func (handler *ApiHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var params types.CreateClientParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		badRequest(w, err)
		return
	}

	client, err := handler.mn.CreateClient(r.Context(), params)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "client created", client)
}

func (handler *ApiHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := handler.mn.ListClients(r.Context())
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "success", clients)
}

func (handler *ApiHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "client_id"))
	if err != nil {
		badRequest(w, err)
		return
	}

	if err := handler.mn.DeleteClient(r.Context(), clientID); err != nil {
		failure(w, err)
		return
	}

	ok(w, "client deleted", nil)
}

func (handler *ApiHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var params types.CreateSiteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		badRequest(w, err)
		return
	}

	site, err := handler.mn.CreateSite(r.Context(), params)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "site created", site)
}

func (handler *ApiHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "client_id"))
	if err != nil {
		badRequest(w, err)
		return
	}

	sites, err := handler.mn.ListSites(r.Context(), clientID)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "success", sites)
}

func (handler *ApiHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	siteID, err := uuid.Parse(chi.URLParam(r, "site_id"))
	if err != nil {
		badRequest(w, err)
		return
	}

	if err := handler.mn.DeleteSite(r.Context(), siteID); err != nil {
		failure(w, err)
		return
	}

	ok(w, "site deleted", nil)
}

func (handler *ApiHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	var params types.CreateImageParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		badRequest(w, err)
		return
	}

	image, err := handler.mn.CreateImage(r.Context(), params)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "image registered", image)
}

func (handler *ApiHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(chi.URLParam(r, "image_id"))
	if err != nil {
		badRequest(w, err)
		return
	}

	image, err := handler.mn.GetImage(r.Context(), imageID)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "success", image)
}

func (handler *ApiHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	if siteParam := r.URL.Query().Get("site_id"); siteParam != "" {
		siteID, err := uuid.Parse(siteParam)
		if err != nil {
			badRequest(w, err)
			return
		}

		images, err := handler.mn.ListImages(r.Context(), siteID)
		if err != nil {
			failure(w, err)
			return
		}
		ok(w, "success", images)
		return
	}

	images, err := handler.mn.ListAllImages(r.Context())
	if err != nil {
		failure(w, err)
		return
	}
	ok(w, "success", images)
}

func (handler *ApiHandler) IssueCredential(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID uuid.UUID `json:"client_id"`
		SiteID   uuid.UUID `json:"site_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, err)
		return
	}

	cred, err := handler.mn.IssueCredential(r.Context(), body.ClientID, body.SiteID)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "success", cred)
}

func (handler *ApiHandler) AcknowledgeCredential(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID uuid.UUID `json:"client_id"`
		SiteID   uuid.UUID `json:"site_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, err)
		return
	}

	if err := handler.mn.AcknowledgeCredential(r.Context(), body.ClientID, body.SiteID); err != nil {
		failure(w, err)
		return
	}

	ok(w, "credential acknowledged", nil)
}

func (handler *ApiHandler) StartBackup(w http.ResponseWriter, r *http.Request) {
	var params types.StartBackupParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		badRequest(w, err)
		return
	}

	op, err := handler.mn.StartBackup(r.Context(), params)
	if err != nil {
		failure(w, err)
		return
	}

	logger.Info("backup started",
		zap.String("operation_id", op.ID),
		zap.String("image_id", op.ImageID.String()))
	ok(w, "backup started", types.OperationResponse{OperationID: op.ID, ImageID: op.ImageID})
}

func (handler *ApiHandler) StartRestore(w http.ResponseWriter, r *http.Request) {
	var params types.StartRestoreParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		badRequest(w, err)
		return
	}

	op, err := handler.mn.StartRestore(r.Context(), params)
	if err != nil {
		failure(w, err)
		return
	}

	logger.Info("restore started",
		zap.String("operation_id", op.ID),
		zap.String("image_id", op.ImageID.String()))
	ok(w, "restore started", types.OperationResponse{OperationID: op.ID, ImageID: op.ImageID})
}

// StreamOperation replays an operation's progress as line-delimited JSON until
// the operation reaches a terminal state or the client disconnects.
func (handler *ApiHandler) StreamOperation(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operation_id")
	op, found := handler.mn.GetOperation(operationID)
	if !found {
		failure(w, types.ErrNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := handler.eb.Register(operationID)
	defer handler.eb.Unregister(operationID, ch)

	for {
		select {
		case ev := <-ch:
			_ = writeEventLine(w, ev)
			if ev.Type == eventbus.Complete {
				return
			}
		case <-op.Done():
			// drain whatever the operation broadcast before finishing
			for {
				select {
				case ev := <-ch:
					_ = writeEventLine(w, ev)
				default:
					_ = writeEventLine(w, terminalEvent(op))
					return
				}
			}
		case <-r.Context().Done():
			return
		}
	}
}

func terminalEvent(op *orchestrator.Operation) eventbus.Event {
	state := op.State()
	if state.Success() {
		data, _ := json.Marshal(map[string]interface{}{
			"state":    state,
			"warnings": op.Warnings(),
		})
		return eventbus.Event{Type: eventbus.Complete, Message: "operation finished", Data: data}
	}
	return eventbus.Event{Type: eventbus.Error, Message: op.Failure()}
}

func (handler *ApiHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operation_id")
	op, found := handler.mn.GetOperation(operationID)
	if !found {
		failure(w, types.ErrNotFound)
		return
	}

	ok(w, "success", map[string]interface{}{
		"operation_id": op.ID,
		"kind":         op.Kind,
		"image_id":     op.ImageID,
		"state":        op.State(),
		"warnings":     op.Warnings(),
		"failure":      op.Failure(),
	})
}

func (handler *ApiHandler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operation_id")
	if err := handler.mn.CancelOperation(operationID); err != nil {
		failure(w, err)
		return
	}

	ok(w, "cancellation requested", nil)
}

func (handler *ApiHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(chi.URLParam(r, "image_id"))
	if err != nil {
		badRequest(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	snapshots, err := handler.mn.ListSnapshots(ctx, imageID)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "success", snapshots)
}

func (handler *ApiHandler) ListBackupRecords(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(chi.URLParam(r, "image_id"))
	if err != nil {
		badRequest(w, err)
		return
	}

	records, err := handler.mn.ListBackupRecords(r.Context(), imageID)
	if err != nil {
		failure(w, err)
		return
	}

	ok(w, "success", records)
}

func (handler *ApiHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := handler.mn.ValidateToken(r.Header.Get(authorizationHeader)); err != nil {
		unauthorized(w, err)
		return
	}

	ok(w, "success", nil)
}
