// Package n8n invokes the external workflow engine's webhook endpoints. Each
// logical stage of the catalog pipeline maps to one named webhook. Outcomes
// are classified into transient failures (network, timeout, 5xx), which are
// retried with backoff, and fatal failures (4xx, malformed or unsuccessful
// response), which are not.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Webhooks holds the webhook ids for the three pipeline stages.
type Webhooks struct {
	LogoProcessing string
	PageGenerator  string
	PDFAssembly    string
}

type Client struct {
	baseURL    string
	webhooks   Webhooks
	httpClient *http.Client
	maxRetries int
	retryBase  time.Duration
}

// TransientError wraps a retryable failure: network error, timeout, or a 5xx
// from the workflow engine.
type TransientError struct {
	Workflow string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("workflow %q transient failure: %v", e.Workflow, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError wraps a non-retryable failure: the workflow rejected the request
// or returned a response we cannot use. Re-invoking would duplicate side
// effects on the engine, so the pipeline fails immediately.
type FatalError struct {
	Workflow string
	Status   int
	Detail   string
}

func (e *FatalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("workflow %q failed: status %d: %s", e.Workflow, e.Status, e.Detail)
	}
	return fmt.Sprintf("workflow %q failed: %s", e.Workflow, e.Detail)
}

type LogoProcessingPayload struct {
	JobID    string   `json:"job_id"`
	LogoURLs []string `json:"logo_urls"`
}

type LogoProcessingResponse struct {
	JobID        string `json:"job_id"`
	LogoLargeURL string `json:"logo_large_url"`
	LogoSmallURL string `json:"logo_small_url"`
	Success      bool   `json:"success"`
}

type PageGeneratorPayload struct {
	JobID        string `json:"job_id"`
	Garment      string `json:"garment"`
	Color        string `json:"color"`
	LogoLargeURL string `json:"logo_large_url"`
	LogoSmallURL string `json:"logo_small_url"`
}

type PageGeneratorResponse struct {
	JobID   string `json:"job_id"`
	PageURL string `json:"page_url"`
	Garment string `json:"garment"`
	Color   string `json:"color"`
	Success bool   `json:"success"`
}

type PDFAssemblyPayload struct {
	JobID        string   `json:"job_id"`
	CustomerName string   `json:"customer_name"`
	CatalogType  string   `json:"catalog_type"`
	PageURLs     []string `json:"page_urls"`
}

type PDFAssemblyResponse struct {
	JobID   string `json:"job_id"`
	PDFURL  string `json:"pdf_url"`
	Success bool   `json:"success"`
}

func NewClient(baseURL string, webhooks Webhooks, timeout time.Duration, maxRetries int, retryBase time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		webhooks: webhooks,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		retryBase:  retryBase,
	}
}

func (c *Client) ProcessLogo(ctx context.Context, payload LogoProcessingPayload) (*LogoProcessingResponse, error) {
	var resp LogoProcessingResponse
	if err := c.invoke(ctx, c.webhooks.LogoProcessing, "logo-processing", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &FatalError{Workflow: "logo-processing", Detail: "workflow reported failure"}
	}
	if resp.LogoLargeURL == "" || resp.LogoSmallURL == "" {
		return nil, &FatalError{Workflow: "logo-processing", Detail: "response missing derivative logo urls"}
	}
	return &resp, nil
}

func (c *Client) GeneratePage(ctx context.Context, payload PageGeneratorPayload) (*PageGeneratorResponse, error) {
	var resp PageGeneratorResponse
	if err := c.invoke(ctx, c.webhooks.PageGenerator, "page-generator", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &FatalError{Workflow: "page-generator", Detail: "workflow reported failure"}
	}
	if resp.PageURL == "" {
		return nil, &FatalError{Workflow: "page-generator", Detail: "response missing page url"}
	}
	return &resp, nil
}

func (c *Client) AssemblePDF(ctx context.Context, payload PDFAssemblyPayload) (*PDFAssemblyResponse, error) {
	var resp PDFAssemblyResponse
	if err := c.invoke(ctx, c.webhooks.PDFAssembly, "pdf-assembly", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &FatalError{Workflow: "pdf-assembly", Detail: "workflow reported failure"}
	}
	if resp.PDFURL == "" {
		return nil, &FatalError{Workflow: "pdf-assembly", Detail: "response missing pdf url"}
	}
	return &resp, nil
}

// invoke posts payload to the named webhook, retrying transient failures up
// to maxRetries additional attempts with exponential backoff. Diagnostics
// carry only the workflow name and status; payload bodies are never logged.
func (c *Client) invoke(ctx context.Context, webhookID, workflow string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return &FatalError{Workflow: workflow, Detail: fmt.Sprintf("failed to marshal payload: %v", err)}
	}

	url := c.baseURL + "/" + webhookID

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &TransientError{Workflow: workflow, Err: ctx.Err()}
			}
		}

		body, err := c.post(ctx, url, workflow, jsonData)
		if err != nil {
			var transient *TransientError
			if errors.As(err, &transient) {
				lastErr = err
				continue
			}
			return err
		}

		if err := json.Unmarshal(body, out); err != nil {
			return &FatalError{Workflow: workflow, Detail: fmt.Sprintf("malformed response: %v", err)}
		}
		return nil
	}

	return lastErr
}

func (c *Client) post(ctx context.Context, url, workflow string, jsonData []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &FatalError{Workflow: workflow, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Workflow: workflow, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Workflow: workflow, Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &TransientError{Workflow: workflow, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &FatalError{Workflow: workflow, Status: resp.StatusCode, Detail: truncate(string(body), 200)}
	}

	return body, nil
}


func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
