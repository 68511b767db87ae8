package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-server/internal/logging"
)

// Scanner runs one due scan.
type Scanner interface {
	Run(ctx context.Context) (int, error)
}

// Runner runs a Scanner on a cron schedule. Overlapping runs are skipped and a
// panicking run does not stop the schedule.
type Runner struct {
	scanner Scanner
	cron    *cron.Cron
	log     *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRunner parses spec as a five field cron expression (descriptors such as
// @daily are accepted) evaluated in timezone. An empty timezone means local.
func NewRunner(scanner Scanner, spec, timezone string, log *logrus.Logger) (*Runner, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("scan timezone %q: %w", timezone, err)
		}
	}

	cronLog := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLocation(loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		scanner: scanner,
		cron:    c,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := c.AddFunc(spec, r.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("scan schedule %q: %w", spec, err)
	}
	return r, nil
}

func (r *Runner) tick() {
	_, _ = r.RunOnce(r.ctx)
}

// RunOnce runs a scan immediately and logs its outcome.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	logData := logging.NewLogData(r.log)
	ctx = logging.WithLogData(ctx, logData)
	r.log.Info("Scan.Run.Start")

	endTimer := logData.AddTiming("duration")
	count, err := r.scanner.Run(ctx)
	endTimer()
	if err != nil {
		logData.Log().WithError(err).Error("Scan.Run.Error")
		return 0, err
	}

	logData.AddData("published", count)
	logData.Log().Info("Scan.Run.Complete")
	return count, nil
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop stops the schedule, cancels a running scan and waits for it to return.
func (r *Runner) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
}

// Next is the time of the next scheduled scan.
func (r *Runner) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
