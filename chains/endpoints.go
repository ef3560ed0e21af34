package chains

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultCallTimeout bounds every single outbound request. The verification
// retry loop owns the larger wall-clock budget.
const defaultCallTimeout = 12 * time.Second

// errAllEndpointsFailed signals that no candidate endpoint produced a usable
// response. The verifier treats it like any other attempt failure.
var errAllEndpointsFailed = errors.New("all endpoints failed")

// endpointPool walks an ordered list of candidate RPC/explorer hosts. A
// network failure, non-2xx status or undecodable body moves on to the next
// endpoint; only exhausting the whole list is reported as an error.
type endpointPool struct {
	endpoints []string
	headers   map[string]string
	client    *http.Client
}

func newEndpointPool(endpoints []string) *endpointPool {
	return &endpointPool{
		endpoints: endpoints,
		client:    &http.Client{Timeout: defaultCallTimeout},
	}
}

// withHeaders sets headers attached to every request, e.g. explorer API keys.
func (p *endpointPool) withHeaders(headers map[string]string) *endpointPool {
	p.headers = headers
	return p
}

// getJSON issues GET <endpoint><path> against each endpoint in order and
// decodes the first good response into out.
func (p *endpointPool) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error
	for _, base := range p.endpoints {
		if err := p.tryOnce(ctx, http.MethodGet, base+path, nil, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", errAllEndpointsFailed, lastErr)
}

// postJSON issues POST <endpoint><path> with a JSON body against each
// endpoint in order.
func (p *endpointPool) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for _, base := range p.endpoints {
		if err := p.tryOnce(ctx, http.MethodPost, base+path, payload, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", errAllEndpointsFailed, lastErr)
}

func (p *endpointPool) tryOnce(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint %s returned status %d", url, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed payload from %s: %w", url, err)
	}
	return nil
}
