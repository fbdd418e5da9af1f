package consensus

import (
	"io"
	"sync"
	"time"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/sirupsen/logrus"
)

// ProgressFunc is called once per classified shop, from a single goroutine.
type ProgressFunc func(done, total int)

type Engine struct {
	workers   int
	cellLevel int
	logger    logrus.FieldLogger
	progress  ProgressFunc
	now       func() time.Time
}

type Option func(*Engine)

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithCellLevel(level int) Option {
	return func(e *Engine) {
		if level >= 0 && level <= 30 {
			e.cellLevel = level
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

func NewEngine(opts ...Option) *Engine {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	e := &Engine{
		workers:   1,
		cellLevel: models.DefaultCellLevel,
		logger:    discard,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze recomputes the whole report from raw. It never fails: malformed visits
// are dropped and an empty input yields an empty report.
func (e *Engine) Analyze(raw []models.RawVisit) *models.Report {
	records := NormalizeAll(raw)
	groups := GroupByShop(records)
	e.logger.WithFields(logrus.Fields{
		"raw_visits":   len(raw),
		"valid_visits": len(records),
		"shops":        len(groups),
	}).Info("analyzing visits")

	shops := e.classifyAll(groups)
	salesmen := AggregateSalesmen(shops)

	e.logger.WithField("salesmen", len(salesmen)).Info("analysis complete")
	return &models.Report{
		GeneratedAt: e.now().UTC(),
		Shops:       shops,
		Salesmen:    salesmen,
	}
}

type classified struct {
	index     int
	consensus models.LocationConsensus
}

// classifyAll runs Classify per shop. Shops are independent, so with more than one
// worker they are fanned out; results land by index to keep group order.
func (e *Engine) classifyAll(groups []models.ShopVisitGroup) []models.LocationConsensus {
	shops := make([]models.LocationConsensus, len(groups))
	if len(groups) == 0 {
		return shops
	}

	jobs := make(chan int)
	results := make(chan classified)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(groups) {
		workers = len(groups)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- classified{index: i, consensus: Classify(groups[i], e.cellLevel)}
			}
		}()
	}

	go func() {
		for i := range groups {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		shops[r.index] = r.consensus
		done++
		e.logger.WithFields(logrus.Fields{
			"shop":     r.consensus.ShopID,
			"visits":   r.consensus.TotalVisits,
			"clusters": r.consensus.LocationClusters,
			"dominant": r.consensus.DominantLocation.String(),
			"level":    r.consensus.ConsensusLevel,
			"risk":     r.consensus.FraudRisk,
		}).Debug("shop classified")
		if e.progress != nil {
			e.progress(done, len(groups))
		}
	}
	return shops
}
