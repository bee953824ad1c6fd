// Package main implements a standalone seed script that populates a running
// fulfillment stack with test data. It registers a set of products with the
// warehouse over HTTP and restocks each one, so that orders can be created
// and assembled immediately afterwards.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func httpSend(method, url string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, respBody)
	}

	var result map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return result, nil
}

func randomUUID(r *rand.Rand) string {
	b := make([]byte, 16)
	r.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

func main() {
	warehouseURL := getEnv("WAREHOUSE_BASE_URL", "http://localhost:8002")
	count := 25
	if v := os.Getenv("SEED_PRODUCT_COUNT"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &count); err != nil {
			log.Fatalf("invalid SEED_PRODUCT_COUNT %q: %v", v, err)
		}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	endpoint := warehouseURL + "/api/v1/warehouse"

	log.Printf("seeding %d products into %s", count, warehouseURL)

	for i := 0; i < count; i++ {
		productID := randomUUID(r)

		_, err := httpSend(http.MethodPut, endpoint, map[string]any{
			"product_id": productID,
			"weight":     fmt.Sprintf("%.3f", 0.1+r.Float64()*4.9),
			"width":      fmt.Sprintf("%.3f", 0.05+r.Float64()*0.5),
			"height":     fmt.Sprintf("%.3f", 0.05+r.Float64()*0.5),
			"depth":      fmt.Sprintf("%.3f", 0.05+r.Float64()*0.5),
			"fragile":    r.Intn(5) == 0,
		})
		if err != nil {
			log.Fatalf("register product: %v", err)
		}

		_, err = httpSend(http.MethodPost, endpoint+"/add", map[string]any{
			"product_id": productID,
			"quantity":   10 + r.Intn(90),
		})
		if err != nil {
			log.Fatalf("restock product: %v", err)
		}

		fmt.Println(productID)
	}

	log.Printf("done: %d products registered and stocked", count)
}
