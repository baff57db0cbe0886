// Copyright 2026 The ldap2fa-proxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package secondfactor implements the HTTP client the proxy session
// consults after the upstream directory accepts a first-factor bind.
package secondfactor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	logging "github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("ldap2fa-proxy:secondfactor")

// Client authenticates a login against an out-of-band second-factor
// service. Implementations must fail closed: any transport error,
// non-2xx response or timeout is reported as a refusal, never as an
// error the caller has to decide how to interpret.
type Client interface {
	Authenticate(ctx context.Context, login string) bool
}

// HTTPClient calls a configured URL with a JSON body of the form
// {"login": "..."} and treats a 2xx response whose body is
// {"allow": true} as acceptance.
type HTTPClient struct {
	URL     string
	Timeout time.Duration

	httpClient *http.Client
}

// NewHTTPClient returns a Client that POSTs to url, bounding every call
// to timeout.
func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		URL:     url,
		Timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type authenticateRequest struct {
	Login string `json:"login"`
}

type authenticateResponse struct {
	Allow bool `json:"allow"`
}

// Authenticate reports whether login passes the second factor. Any
// error — building the request, the network round trip, a non-2xx
// status, a response body that does not parse — is logged and treated
// as a refusal. A well-formed 2xx response is only an acceptance if its
// body is {"allow": true}.
func (c *HTTPClient) Authenticate(ctx context.Context, login string) bool {
	body, err := json.Marshal(authenticateRequest{Login: login})
	if err != nil {
		log.Errorf("secondfactor: encoding request for %q: %s", login, err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		log.Errorf("secondfactor: building request for %q: %s", login, err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("secondfactor: %s", errors.Wrapf(err, "calling second factor for %q", login))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debugf("secondfactor: refused login %q: status %d", login, resp.StatusCode)
		return false
	}

	var out authenticateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Errorf("secondfactor: decoding response for %q: %s", login, err)
		return false
	}

	return out.Allow
}
