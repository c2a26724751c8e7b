package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"digitalhippo/contexts/catalog/product-service/ports"
)

// Registrar fakes the payment processor's product catalog.
type Registrar struct {
	mu       sync.Mutex
	sequence int
	failNext bool
}

func NewRegistrar() *Registrar {
	return &Registrar{}
}

func (r *Registrar) FailNext() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = true
}

func (r *Registrar) RegisterProduct(_ context.Context, _ string, _ int64) (ports.GatewayProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext {
		r.failNext = false
		return ports.GatewayProduct{}, errors.New("registrar unavailable")
	}
	r.sequence++
	return ports.GatewayProduct{
		ProcessorProductID: fmt.Sprintf("prod_gw_%d", r.sequence),
		PriceRef:           fmt.Sprintf("price_gw_%d", r.sequence),
	}, nil
}

func (r *Registrar) UpdateProduct(_ context.Context, processorProductID string, _ string, _ int64) (ports.GatewayProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext {
		r.failNext = false
		return ports.GatewayProduct{}, errors.New("registrar unavailable")
	}
	r.sequence++
	return ports.GatewayProduct{
		ProcessorProductID: processorProductID,
		PriceRef:           fmt.Sprintf("price_gw_%d", r.sequence),
	}, nil
}

// ObjectStore keeps uploaded blobs in a map and hands out fake download
// URLs.
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

func (o *ObjectStore) Put(_ context.Context, key string, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = data
	return nil
}

func (o *ObjectStore) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.objects[key]; !ok {
		return "", fmt.Errorf("object %s not stored", key)
	}
	return "https://objects.local/" + key + "?signed=true", nil
}

// SeedObject plants a blob without going through an upload.
func (o *ObjectStore) SeedObject(key string, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = data
}

// Object exposes stored bytes to tests.
func (o *ObjectStore) Object(key string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[key]
	return data, ok
}
