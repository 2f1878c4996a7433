package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// LedgerClient is used by client programs to connect to the cluster:
// get/put content-addressed values, submit transactions and inspect
// the chain through the REST surface of any node.
type LedgerClient struct {
	// ClusterAddresses is the list of REST base URLs the client can
	// connect to.
	ClusterAddresses []string
}

// CreateLedgerClient creates a new client. clusterNodeAddresses are
// REST base URLs of some of the nodes in the cluster.
func CreateLedgerClient(clusterNodeAddresses []string) *LedgerClient {
	return &LedgerClient{ClusterAddresses: clusterNodeAddresses}
}

var (
	// ErrorKeyNotFound is raised when the key is not present anywhere
	// in the cluster.
	ErrorKeyNotFound = errors.New("Key not found")
)

// GetData gets the value stored under the given hex key.
func (lc *LedgerClient) GetData(key string) (string, error) {
	var geterr error
	for _, address := range lc.ClusterAddresses {
		request, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/data/%s", address, key), nil)
		if err != nil {
			geterr = err
			continue
		}
		body, status, err := lc.doRequest(request)
		if err != nil {
			geterr = err
			continue
		}
		if status == http.StatusNotFound {
			return "", ErrorKeyNotFound
		}
		var response struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			geterr = err
			continue
		}
		return response.Value, nil
	}
	return "", fmt.Errorf("cannot contact any nodes: %w", geterr)
}

// PostData stores a value in the cluster and returns the
// content-derived key it is stored under.
func (lc *LedgerClient) PostData(value string) (string, error) {
	body, err := json.Marshal(map[string]string{"value": value})
	if err != nil {
		return "", err
	}
	var posterr error
	for _, address := range lc.ClusterAddresses {
		request, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/data", address), bytes.NewBuffer(body))
		if err != nil {
			posterr = err
			continue
		}
		responseBody, _, err := lc.doRequest(request)
		if err != nil {
			posterr = err
			continue
		}
		var response struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(responseBody, &response); err != nil {
			posterr = err
			continue
		}
		return response.Key, nil
	}
	return "", posterr
}

// SubmitTransaction submits an auction payload as a transaction signed
// by the contacted node and returns the transaction ID.
func (lc *LedgerClient) SubmitTransaction(payload string) (string, error) {
	body, err := json.Marshal(map[string]string{"payload": payload})
	if err != nil {
		return "", err
	}
	var posterr error
	for _, address := range lc.ClusterAddresses {
		request, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/transactions", address), bytes.NewBuffer(body))
		if err != nil {
			posterr = err
			continue
		}
		responseBody, _, err := lc.doRequest(request)
		if err != nil {
			posterr = err
			continue
		}
		var response struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(responseBody, &response); err != nil {
			posterr = err
			continue
		}
		return response.ID, nil
	}
	return "", posterr
}

// doRequest sends the request and returns the response body and
// status. Non-2xx statuses other than 404 are reported as errors.
func (lc *LedgerClient) doRequest(r *http.Request) ([]byte, int, error) {
	client := &http.Client{}
	response, err := client.Do(r)
	if err != nil {
		return nil, 0, err
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, response.StatusCode, err
	}
	if response.StatusCode >= 300 && response.StatusCode != http.StatusNotFound {
		return nil, response.StatusCode, fmt.Errorf("status=%d", response.StatusCode)
	}
	return body, response.StatusCode, nil
}
