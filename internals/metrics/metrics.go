package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// JuzRecorder mencatat hasil operasi juz (claim/release/complete/...).
type JuzRecorder interface {
	ObserveJuzOp(op, result string)
	ObserveKhatmaCompleted()
}

type Nop struct{}

func (Nop) ObserveJuzOp(string, string) {}
func (Nop) ObserveKhatmaCompleted()     {}

// Collector: implementasi Prometheus. Registrasi lazy, sekali.
type Collector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	juzOps          *prometheus.CounterVec
	khatmaCompleted prometheus.Counter
}

var _ JuzRecorder = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "khatmaku"
	}
	return &Collector{reg: reg, namespace: namespace}
}

func (c *Collector) ensureRegistered() {
	c.once.Do(func() {
		c.juzOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "khatma",
			Name:      "juz_operations_total",
			Help:      "Juz operations by op and result (ok, noop, conflict, already_claimed, forbidden, invalid_state, not_found, error).",
		}, []string{"op", "result"})

		c.khatmaCompleted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "khatma",
			Name:      "completed_total",
			Help:      "Khatmas whose 30th juz got completed.",
		})

		c.juzOps = register(c.reg, c.juzOps).(*prometheus.CounterVec)
		c.khatmaCompleted = register(c.reg, c.khatmaCompleted).(prometheus.Counter)
	})
}

// register mengembalikan collector yang sudah terdaftar kalau ada duplikat.
func register(reg prometheus.Registerer, col prometheus.Collector) prometheus.Collector {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
	}
	return col
}

func (c *Collector) ObserveJuzOp(op, result string) {
	c.ensureRegistered()
	c.juzOps.WithLabelValues(op, result).Inc()
}

func (c *Collector) ObserveKhatmaCompleted() {
	c.ensureRegistered()
	c.khatmaCompleted.Inc()
}
