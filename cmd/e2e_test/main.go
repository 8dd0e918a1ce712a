package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("E2E_BASE_URL"); v != "" {
		baseURL = v
	}
	// Wait for server to start
	time.Sleep(2 * time.Second)

	checkEndpoint("GET", "/health", nil, 200, nil)

	coin := map[string]string{"id": "bitcoin", "name": "Bitcoin", "symbol": "btc"}
	checkEndpoint("POST", "/portfolio/transactions", map[string]any{
		"type": "buy", "quantity": "0.5", "price": "40000", "coin": coin,
	}, 201, nil)
	checkEndpoint("POST", "/portfolio/transactions", map[string]any{
		"type": "buy", "quantity": "0.5", "price": "50000", "coin": coin,
	}, 201, nil)
	checkEndpoint("GET", "/portfolio", nil, 200, nil)

	var alert struct {
		ID string `json:"id"`
	}
	checkEndpoint("POST", "/alerts", map[string]any{
		"coin": coin, "targetPrice": "1", "alertType": "above",
	}, 201, &alert)
	fmt.Printf("Created alert ID: %s\n", alert.ID)

	checkEndpoint("POST", "/alerts/evaluate", nil, 200, nil)
	checkEndpoint("POST", "/alerts/"+alert.ID+"/toggle", nil, 200, nil)
	checkEndpoint("GET", "/coins?per_page=10", nil, 200, nil)
	checkEndpoint("GET", "/prices?ids=bitcoin,ethereum", nil, 200, nil)
	checkEndpoint("GET", "/prices/bitcoin/history?days=1", nil, 200, nil)
	checkEndpoint("GET", "/convert?from=bitcoin&to=usd&amount=1", nil, 200, nil)

	checkEndpoint("POST", "/portfolio/transactions", map[string]any{
		"type": "sell", "quantity": "1", "price": "60000", "coin": coin,
	}, 200, nil)
	checkEndpoint("DELETE", "/alerts/"+alert.ID, nil, 200, nil)
	checkEndpoint("GET", "/portfolio", nil, 200, nil)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body any, expectedStatus int, into any) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	if into != nil {
		if err := json.Unmarshal(respBody, into); err != nil {
			log.Fatalf("Decode failed: %v", err)
		}
	}
	fmt.Printf("Response: %s\n", string(respBody))
}
