// internal/clients/registry_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/circulation"
	"lendingregistry/internal/membership"
	"lendingregistry/internal/outcome"
	"lendingregistry/internal/respond"
)

var _ circulation.Service = (*RegistryClient)(nil)

// RegistryClient talks to a registry server over HTTP and satisfies the same
// Service interface as the in-process implementation.
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRegistryClient(baseURL string, httpClient *http.Client) *RegistryClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RegistryClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *RegistryClient) AddItem(ctx context.Context, item catalog.Item) (catalog.View, error) {
	var view catalog.View
	resp, err := c.do(ctx, http.MethodPost, "/items", item)
	if err != nil {
		return view, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return view, unexpected(resp)
	}
	if err := decode(resp, &view); err != nil {
		return view, err
	}
	return view, nil
}

func (c *RegistryClient) GetItem(ctx context.Context, id string) (catalog.View, error) {
	var view catalog.View
	resp, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id), nil)
	if err != nil {
		return view, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := decode(resp, &view); err != nil {
			return view, err
		}
		return view, nil
	case http.StatusNotFound:
		return view, fmt.Errorf("%w: %s", catalog.ErrItemNotFound, id)
	default:
		return view, unexpected(resp)
	}
}

func (c *RegistryClient) ListItems(ctx context.Context) ([]catalog.View, error) {
	var views []catalog.View
	if err := c.getJSON(ctx, "/items", &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *RegistryClient) AddMember(ctx context.Context, id, name, passphrase string) (membership.View, error) {
	var view membership.View
	body := map[string]string{"id": id, "name": name}
	if passphrase != "" {
		body["passphrase"] = passphrase
	}

	resp, err := c.do(ctx, http.MethodPost, "/members", body)
	if err != nil {
		return view, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return view, unexpected(resp)
	}
	if err := decode(resp, &view); err != nil {
		return view, err
	}
	return view, nil
}

func (c *RegistryClient) GetMember(ctx context.Context, id string) (membership.View, error) {
	var view membership.View
	resp, err := c.do(ctx, http.MethodGet, "/members/"+url.PathEscape(id), nil)
	if err != nil {
		return view, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := decode(resp, &view); err != nil {
			return view, err
		}
		return view, nil
	case http.StatusNotFound:
		return view, fmt.Errorf("%w: %s", membership.ErrMemberNotFound, id)
	default:
		return view, unexpected(resp)
	}
}

func (c *RegistryClient) ListMembers(ctx context.Context) ([]membership.View, error) {
	var views []membership.View
	if err := c.getJSON(ctx, "/members", &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *RegistryClient) BorrowedItems(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/members/"+url.PathEscape(id)+"/items", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Listing string `json:"listing"`
		}
		if err := decode(resp, &body); err != nil {
			return "", err
		}
		return body.Listing, nil
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", membership.ErrMemberNotFound, id)
	default:
		return "", unexpected(resp)
	}
}

// Authenticate maps the server's 401 onto ErrInvalidCredentials. The server
// does not distinguish unknown members from wrong passphrases.
func (c *RegistryClient) Authenticate(ctx context.Context, id, passphrase string) error {
	resp, err := c.do(ctx, http.MethodPost, "/members/"+url.PathEscape(id)+"/authenticate",
		map[string]string{"passphrase": passphrase})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return membership.ErrInvalidCredentials
	case http.StatusTooManyRequests:
		return membership.ErrRateLimited
	default:
		return unexpected(resp)
	}
}

func (c *RegistryClient) BorrowItem(ctx context.Context, memberID, itemID string) (outcome.Outcome, error) {
	return c.loan(ctx, "/borrow", memberID, itemID)
}

func (c *RegistryClient) ReturnItem(ctx context.Context, memberID, itemID string) (outcome.Outcome, error) {
	return c.loan(ctx, "/return", memberID, itemID)
}

func (c *RegistryClient) Summary(ctx context.Context) (circulation.Summary, error) {
	var summary circulation.Summary
	if err := c.getJSON(ctx, "/summary", &summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// loan posts a borrow or return. Every outcome kind, including the failed
// ones, comes back as an outcome rather than an error.
func (c *RegistryClient) loan(ctx context.Context, path, memberID, itemID string) (outcome.Outcome, error) {
	resp, err := c.do(ctx, http.MethodPost, path, map[string]string{"member_id": memberID, "item_id": itemID})
	if err != nil {
		return outcome.Outcome{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound, http.StatusConflict:
		var res circulation.OutcomeResponse
		if err := decode(resp, &res); err != nil {
			return outcome.Outcome{}, err
		}
		return res.Outcome, nil
	default:
		return outcome.Outcome{}, unexpected(resp)
	}
}

func (c *RegistryClient) getJSON(ctx context.Context, path string, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpected(resp)
	}
	return decode(resp, dst)
}

func (c *RegistryClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

func decode(resp *http.Response, dst any) error {
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", resp.Request.URL.Path, err)
	}
	return nil
}

// unexpected turns a non-success response into an error, using the problem
// details body when there is one.
func unexpected(resp *http.Response) error {
	var problem respond.Problem
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil && problem.Status != 0 {
		return &problem
	}
	return errors.New("unexpected status code: " + resp.Status)
}
