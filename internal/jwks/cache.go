// Package jwks mantiene el key set público del user pool.
//
// Modelo: fetch perezoso la primera vez que alguien verifica un token y
// cache para toda la vida del proceso. Los cold reads concurrentes colapsan
// en un solo fetch vía singleflight; los lectores ven siempre o nada o un
// set completo (el map se reemplaza atómico bajo el lock, nunca se muta).
package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/cognitogate/internal/metrics"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
	"golang.org/x/sync/singleflight"
)

// ErrKeyFetch marca cualquier falla obteniendo o parseando el key set.
var ErrKeyFetch = errors.New("jwks fetch failed")

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type document struct {
	Keys []jwk `json:"keys"`
}

// Cache es el key set cacheado del pool. Seguro para uso concurrente.
type Cache struct {
	url  string
	http *http.Client

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
	sf   singleflight.Group
}

// New crea la cache apuntando al endpoint JWKS del pool.
func New(url string, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Cache{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Keys retorna el key set, disparando el fetch si todavía no se pobló.
func (c *Cache) Keys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	c.mu.RLock()
	keys := c.keys
	c.mu.RUnlock()
	if keys != nil {
		return keys, nil
	}

	// Colapsar cold reads concurrentes en un único fetch.
	v, err, _ := c.sf.Do("fetch", func() (any, error) {
		c.mu.RLock()
		cached := c.keys
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		fetched, err := c.fetch(ctx)
		if err != nil {
			metrics.JWKSFetches.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.JWKSFetches.WithLabelValues("ok").Inc()

		c.mu.Lock()
		c.keys = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]*rsa.PublicKey), nil
}

// Lookup busca una clave por kid. ok=false si el kid no está en el set.
func (c *Cache) Lookup(ctx context.Context, kid string) (*rsa.PublicKey, bool, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return nil, false, err
	}
	k, ok := keys[kid]
	return k, ok, nil
}

func (c *Cache) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	log := logger.From(ctx).With(logger.Component("jwks"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("jwks fetch failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		log.Error("jwks endpoint returned non-2xx", logger.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: http %d", ErrKeyFetch, resp.StatusCode)
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrKeyFetch, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if !strings.EqualFold(k.Kty, "RSA") || k.Kid == "" {
			continue
		}
		pub, err := rsaFromJWK(k)
		if err != nil {
			log.Warn("skipping unparseable jwk", logger.KID(k.Kid), logger.Err(err))
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no usable RSA keys in document", ErrKeyFetch)
	}

	log.Info("jwks loaded", logger.Count(len(keys)))
	return keys, nil
}

// rsaFromJWK reconstruye la clave pública desde los parámetros n/e.
func rsaFromJWK(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	e := 0
	if len(eb) == 0 {
		e = 65537
	} else {
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
