package provider

import (
	"fmt"
	"sync"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Factory resolves providers by name so callers never hold concrete adapters.
type Factory struct {
	mtx       sync.RWMutex
	providers map[enums.PaymentProvider]Provider
	def       enums.PaymentProvider
}

// NewFactory builds an empty factory with the given default provider name.
func NewFactory(def enums.PaymentProvider) *Factory {
	return &Factory{
		providers: make(map[enums.PaymentProvider]Provider),
		def:       def,
	}
}

// Register adds a provider. The last registration for a name wins.
func (f *Factory) Register(p Provider) {
	if p == nil {
		return
	}
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.providers[p.Name()] = p
}

// Get returns the provider registered under name.
func (f *Factory) Get(name enums.PaymentProvider) (Provider, error) {
	f.mtx.RLock()
	defer f.mtx.RUnlock()
	p, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("payment provider %q not registered", name)
	}
	return p, nil
}

// Default returns the provider configured as the platform default.
func (f *Factory) Default() (Provider, error) {
	return f.Get(f.def)
}
