// Пакет cache — LRU-кэш артефактов экспорта с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package cache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs_export_cache_hits_total",
		Help: "Общее количество попаданий в кэш артефактов экспорта.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs_export_cache_misses_total",
		Help: "Общее количество промахов кэша артефактов экспорта.",
	})
)

// ArtifactCache — кэш готовых артефактов экспорта сохранённых файлов.
// Ключ включает время изменения файла, поэтому после сохранения
// старый артефакт просто перестаёт запрашиваться и вытесняется по TTL.
type ArtifactCache struct {
	cache *expirable.LRU[string, *export.Artifact]
}

// NewArtifactCache создаёт кэш с максимальным размером maxSize и временем жизни ttl.
func NewArtifactCache(maxSize int, ttl time.Duration) *ArtifactCache {
	return &ArtifactCache{
		cache: expirable.NewLRU[string, *export.Artifact](maxSize, nil, ttl),
	}
}

// Key формирует ключ кэша для файла, версии и формата.
func Key(fileID string, modifiedAt time.Time, format export.Format) string {
	return fmt.Sprintf("%s:%d:%s", fileID, modifiedAt.UnixNano(), format)
}

// Get возвращает артефакт по ключу и обновляет метрики hit/miss.
func (c *ArtifactCache) Get(key string) (*export.Artifact, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет артефакт в кэш.
func (c *ArtifactCache) Set(key string, artifact *export.Artifact) {
	c.cache.Add(key, artifact)
}

// Len возвращает количество записей в кэше.
func (c *ArtifactCache) Len() int {
	return c.cache.Len()
}
