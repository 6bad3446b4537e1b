package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RemoteClient talks to a minidb-server's HTTP inspection API. There is
// no leader hint and no redirect loop since a MiniDb engine is never
// replicated.
type RemoteClient struct {
	HTTP *http.Client
	Base *url.URL
}

func (rc *RemoteClient) do(method, path string, q url.Values, body io.Reader) (*http.Response, error) {
	u := *rc.Base
	u.Path = path
	u.RawQuery = q.Encode()
	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}
	return rc.HTTP.Do(req)
}

func readErrorBody(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	return errors.New(strings.TrimSpace(string(b)))
}

// Info returns the raw JSON body of /info.
func (rc *RemoteClient) Info() (string, error) {
	resp, err := rc.do(http.MethodGet, "/info", nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", readErrorBody(resp)
	}
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

// Select returns a row's bytes hex-encoded.
func (rc *RemoteClient) Select(key string) (string, error) {
	q := url.Values{"key": {key}}
	resp, err := rc.do(http.MethodGet, "/select", q, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", readErrorBody(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Scan returns the raw "key\ttag" stream produced by /scan.
func (rc *RemoteClient) Scan() (string, error) {
	resp, err := rc.do(http.MethodGet, "/scan", nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", readErrorBody(resp)
	}
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

func (rc *RemoteClient) writeRow(path, key, hexRow string) error {
	row, err := hex.DecodeString(hexRow)
	if err != nil {
		return fmt.Errorf("invalid hex row %q: %w", hexRow, err)
	}
	q := url.Values{"key": {key}}
	resp, err := rc.do(http.MethodPut, path, q, strings.NewReader(string(row)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readErrorBody(resp)
	}
	return nil
}

// Insert sends a hex-encoded row to /insert.
func (rc *RemoteClient) Insert(key, hexRow string) error {
	return rc.writeRow("/insert", key, hexRow)
}

// Update sends a hex-encoded row to /update.
func (rc *RemoteClient) Update(key, hexRow string) error {
	return rc.writeRow("/update", key, hexRow)
}

// Delete removes a row via /delete.
func (rc *RemoteClient) Delete(key string) error {
	q := url.Values{"key": {key}}
	resp, err := rc.do(http.MethodDelete, "/delete", q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readErrorBody(resp)
	}
	return nil
}

func validateKey(key string) error {
	if _, err := strconv.ParseInt(key, 10, 64); err != nil {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
