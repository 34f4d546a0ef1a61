package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
)

type (
	Service interface {
		CatalogService
		ImagingService
	}

	CatalogService interface {
		CreateClient(ctx context.Context, params CreateClientParams) (Client, error)
		ListClients(ctx context.Context) ([]Client, error)
		DeleteClient(ctx context.Context, clientID uuid.UUID) error
		CreateSite(ctx context.Context, params CreateSiteParams) (Site, error)
		ListSites(ctx context.Context, clientID uuid.UUID) ([]Site, error)
		DeleteSite(ctx context.Context, siteID uuid.UUID) error
		CreateImage(ctx context.Context, params CreateImageParams) (Image, error)
		ListImages(ctx context.Context, siteID *uuid.UUID) ([]Image, error)
	}

	ImagingService interface {
		IssueCredential(ctx context.Context, clientID, siteID uuid.UUID) (Credential, error)
		AcknowledgeCredential(ctx context.Context, clientID, siteID uuid.UUID) error
		StartBackup(ctx context.Context, imageID uuid.UUID) (Operation, error)
		StartRestore(ctx context.Context, params StartRestoreParams) (Operation, error)
		StreamOperation(ctx context.Context, operationID string) (<-chan Event, error)
		GetOperation(ctx context.Context, operationID string) (OperationStatus, error)
		CancelOperation(ctx context.Context, operationID string) error
		ListSnapshots(ctx context.Context, imageID uuid.UUID) ([]Snapshot, error)
		ListBackupRecords(ctx context.Context, imageID uuid.UUID) ([]BackupRecord, error)
	}
)

type service struct {
	apiClient HTTPClient
}

func NewService(apiClient HTTPClient) Service {
	return service{apiClient: apiClient}
}

func (s service) CreateClient(ctx context.Context, params CreateClientParams) (Client, error) {
	var response struct {
		Data Client `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     "clients",
		Body:     params,
		Response: &response,
	})
	return response.Data, err
}

func (s service) ListClients(ctx context.Context) ([]Client, error) {
	var response struct {
		Data []Client `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "GET",
		Path:     "clients",
		Response: &response,
	})
	if err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (s service) DeleteClient(ctx context.Context, clientID uuid.UUID) error {
	return s.apiClient.Do(ctx, Params{
		Method: "DELETE",
		Path:   fmt.Sprintf("clients/%s", clientID),
	})
}

func (s service) CreateSite(ctx context.Context, params CreateSiteParams) (Site, error) {
	var response struct {
		Data Site `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     "sites",
		Body:     params,
		Response: &response,
	})
	return response.Data, err
}

func (s service) ListSites(ctx context.Context, clientID uuid.UUID) ([]Site, error) {
	var response struct {
		Data []Site `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "GET",
		Path:     fmt.Sprintf("clients/%s/sites", clientID),
		Response: &response,
	})
	if err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (s service) DeleteSite(ctx context.Context, siteID uuid.UUID) error {
	return s.apiClient.Do(ctx, Params{
		Method: "DELETE",
		Path:   fmt.Sprintf("sites/%s", siteID),
	})
}

func (s service) CreateImage(ctx context.Context, params CreateImageParams) (Image, error) {
	var response struct {
		Data Image `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     "images",
		Body:     params,
		Response: &response,
	})
	return response.Data, err
}

func (s service) ListImages(ctx context.Context, siteID *uuid.UUID) ([]Image, error) {
	var response struct {
		Data []Image `json:"data"`
	}

	param := Params{
		Method:   "GET",
		Path:     "images",
		Response: &response,
	}
	if siteID != nil {
		param.QueryParams = map[string]string{"site_id": siteID.String()}
	}

	if err := s.apiClient.Do(ctx, param); err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (s service) IssueCredential(ctx context.Context, clientID, siteID uuid.UUID) (Credential, error) {
	type body struct {
		ClientID uuid.UUID `json:"client_id"`
		SiteID   uuid.UUID `json:"site_id"`
	}

	var response struct {
		Data Credential `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     "credentials",
		Body:     body{ClientID: clientID, SiteID: siteID},
		Response: &response,
	})
	return response.Data, err
}

func (s service) AcknowledgeCredential(ctx context.Context, clientID, siteID uuid.UUID) error {
	type body struct {
		ClientID uuid.UUID `json:"client_id"`
		SiteID   uuid.UUID `json:"site_id"`
	}

	return s.apiClient.Do(ctx, Params{
		Method: "POST",
		Path:   "credentials/acknowledge",
		Body:   body{ClientID: clientID, SiteID: siteID},
	})
}

func (s service) StartBackup(ctx context.Context, imageID uuid.UUID) (Operation, error) {
	type body struct {
		ImageID uuid.UUID `json:"image_id"`
	}

	var response struct {
		Data Operation `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     "backups",
		Body:     body{ImageID: imageID},
		Response: &response,
	})
	return response.Data, err
}

func (s service) StartRestore(ctx context.Context, params StartRestoreParams) (Operation, error) {
	var response struct {
		Data Operation `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     "restores",
		Body:     params,
		Response: &response,
	})
	return response.Data, err
}

// StreamOperation follows an operation's progress. The channel closes when the
// server finishes the stream or the context is cancelled.
func (s service) StreamOperation(ctx context.Context, operationID string) (<-chan Event, error) {
	resp, err := s.apiClient.Stream(ctx, Params{
		Method: "GET",
		Path:   fmt.Sprintf("operations/%s/events", operationID),
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan Event, 100)
	go func() {
		defer close(ch)
		defer resp.Close()

		sc := bufio.NewScanner(resp)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			ev := &Event{}
			if err := json.Unmarshal(sc.Bytes(), ev); err != nil {
				continue
			}
			ch <- *ev
		}
	}()
	return ch, nil
}

func (s service) GetOperation(ctx context.Context, operationID string) (OperationStatus, error) {
	var response struct {
		Data OperationStatus `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "GET",
		Path:     fmt.Sprintf("operations/%s", operationID),
		Response: &response,
	})
	return response.Data, err
}

func (s service) CancelOperation(ctx context.Context, operationID string) error {
	return s.apiClient.Do(ctx, Params{
		Method: "POST",
		Path:   fmt.Sprintf("operations/%s/cancel", operationID),
	})
}

func (s service) ListSnapshots(ctx context.Context, imageID uuid.UUID) ([]Snapshot, error) {
	var response struct {
		Data []Snapshot `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "GET",
		Path:     fmt.Sprintf("images/%s/snapshots", imageID),
		Response: &response,
	})
	if err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (s service) ListBackupRecords(ctx context.Context, imageID uuid.UUID) ([]BackupRecord, error) {
	var response struct {
		Data []BackupRecord `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "GET",
		Path:     fmt.Sprintf("images/%s/records", imageID),
		Response: &response,
	})
	if err != nil {
		return nil, err
	}
	return response.Data, nil
}
