package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"imagevault/client/internal/config"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type (
	Params struct {
		Method      string
		Path        string
		Body        interface{}
		Response    interface{}
		QueryParams map[string]string
	}

	HTTPClient interface {
		Do(ctx context.Context, param Params) error
		Stream(ctx context.Context, param Params) (io.ReadCloser, error)
	}

	client struct {
		httpClient *http.Client
		baseUrl    string
		accessKey  string
	}
)

const (
	accessKeyHeader = "X-Access-Token"
)

func NewClient(cfg config.Config) HTTPClient {
	host := cfg.Host
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	if !strings.HasSuffix(host, "v1/") {
		host += "v1/"
	}

	return &client{
		httpClient: &http.Client{},
		baseUrl:    host,
		accessKey:  cfg.AccessKey,
	}
}

func (c client) Do(ctx context.Context, param Params) error {
	req, err := c.newRequest(ctx, param)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(responseBody)
	}

	if param.Response != nil {
		if err := json.Unmarshal(responseBody, &param.Response); err != nil {
			return err
		}
	}
	return nil
}

// Stream leaves the response body open; the caller consumes the
// line-delimited event stream and closes it.
func (c client) Stream(ctx context.Context, param Params) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, param)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, c.parseError(body)
	}

	return resp.Body, nil
}

func (c client) newRequest(ctx context.Context, param Params) (*http.Request, error) {
	requestUrl, err := url.Parse(c.baseUrl + param.Path)
	if err != nil {
		return nil, err
	}

	if len(param.QueryParams) > 0 {
		values := url.Values{}
		for k, v := range param.QueryParams {
			values.Add(k, v)
		}
		requestUrl.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, param.Method, requestUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	if param.Body != nil {
		bodyBin, err := json.Marshal(param.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBin))
	}

	req.Header.Set("Content-Type", "application/json")
	if c.accessKey != "" {
		req.Header.Set(accessKeyHeader, c.accessKey)
	}
	return req, nil
}

func (c client) parseError(b []byte) error {
	var errorResponse struct {
		Message string
	}
	if err := json.Unmarshal(b, &errorResponse); err != nil {
		return errors.New(string(b))
	}
	return errors.New(errorResponse.Message)
}
