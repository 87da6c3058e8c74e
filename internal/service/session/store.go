package session

import (
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "cs_editor_sessions_open",
	Help: "Количество открытых сессий редакторов",
})

// Store — хранилище открытых сессий с вытеснением по размеру и простою.
// Сессии без обращений дольше ttl закрываются без сохранения.
type Store struct {
	cache *expirable.LRU[string, *Session]
}

// NewStore создаёт хранилище на maxSize сессий.
func NewStore(maxSize int, ttl time.Duration, logger *slog.Logger) *Store {
	onEvict := func(id string, s *Session) {
		sessionsOpen.Dec()
		logger.Debug("Сессия редактора закрыта",
			slog.String("session_id", id),
			slog.String("kind", string(s.Kind())),
		)
	}
	return &Store{
		cache: expirable.NewLRU[string, *Session](maxSize, onEvict, ttl),
	}
}

// Put добавляет сессию.
func (st *Store) Put(s *Session) {
	st.cache.Add(s.ID(), s)
	sessionsOpen.Inc()
}

// Get возвращает сессию по id и продлевает её срок жизни.
func (st *Store) Get(id string) (*Session, bool) {
	s, ok := st.cache.Get(id)
	if ok {
		// Обращение продлевает TTL
		st.cache.Add(id, s)
	}
	return s, ok
}

// Remove закрывает сессию. Возвращает true, если сессия была открыта.
func (st *Store) Remove(id string) bool {
	return st.cache.Remove(id)
}

// Len возвращает количество открытых сессий.
func (st *Store) Len() int {
	return st.cache.Len()
}
