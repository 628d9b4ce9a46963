package scheduler

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"OilTycoon/internal/economy"
	"OilTycoon/internal/metrics"
	"OilTycoon/internal/model"
	"OilTycoon/internal/notifier"
	"OilTycoon/internal/recorder"
)

// Scheduler drives the engine: a fixed-interval tick loop plus cron jobs.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   *economy.Engine
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics // optional
	Logger   *log.Logger
	Interval time.Duration

	now  func() time.Time
	wg   sync.WaitGroup
	stop context.CancelFunc
}

// NewScheduler creates a new Scheduler ticking every interval.
func NewScheduler(eng *economy.Engine, rec recorder.Recorder, m *metrics.Metrics, logger *log.Logger, interval time.Duration) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Engine:   eng,
		Recorder: rec,
		Metrics:  m,
		Logger:   logger,
		Interval: interval,
		now:      time.Now,
	}
}

// RegisterAll registers the snapshot and forced-save jobs.
func (s *Scheduler) RegisterAll(snapshotCron, saveCron string) error {
	if _, err := s.Cron.AddFunc(snapshotCron, s.RunSnapshotNow); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	if _, err := s.Cron.AddFunc(saveCron, s.saveTask); err != nil {
		return fmt.Errorf("register save task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler and the tick loop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.stop = context.WithCancel(ctx)
	s.Cron.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunTicks(ctx)
	}()
	s.Logger.Info("scheduler started", "interval", s.Interval)
}

// Stop halts the tick loop and cron jobs, then saves once more.
func (s *Scheduler) Stop() {
	if s.stop != nil {
		s.stop()
	}
	s.wg.Wait()
	<-s.Cron.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Engine.Save(ctx); err != nil {
		s.Logger.Error("final save failed", "err", err)
	}
	s.Logger.Info("scheduler stopped")
}

// RunTicks calls Engine.Tick with the real time elapsed since the previous
// tick. Blocks until ctx is cancelled.
func (s *Scheduler) RunTicks(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			s.tick(now.Sub(last))
			last = now
		}
	}
}

func (s *Scheduler) tick(dt time.Duration) economy.TickReport {
	started := time.Now()
	report := s.Engine.Tick(dt)
	if s.Metrics != nil {
		s.Metrics.ObserveTick(report, time.Since(started))
	}
	for _, id := range report.Achievements {
		s.Logger.Info("achievement unlocked", "id", id)
	}
	return report
}

// RunSnapshotNow records a summary row of the economy immediately.
func (s *Scheduler) RunSnapshotNow() {
	state := s.Engine.Snapshot()
	current, _ := s.Engine.Multipliers()
	if s.Metrics != nil {
		s.Metrics.ObserveState(state, current)
	}
	snap := &model.EconomySnapshot{
		RunID:         state.RunID,
		Balance:       state.Balance,
		RunEarnings:   state.RunEarnings,
		PriorEarnings: state.PriorEarnings,
		TotalLevels:   state.TotalLevels(),
		Multiplier:    current,
		At:            s.now().UnixMilli(),
	}
	if err := s.Recorder.RecordSnapshot(snap); err != nil {
		s.Logger.Error("record snapshot", "err", err)
	}
}

func (s *Scheduler) saveTask() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Engine.Save(ctx); err != nil {
		s.Logger.Error("scheduled save", "err", err)
		return
	}
	s.Logger.Debug("scheduled save done")
}

const helpText = `Commands:
  status                 show the economy
  buy <idx> [n]          buy n levels of an investment (default 1)
  start <idx>            start one production cycle
  manager <idx>          hire or level up the investment's manager
  hire <kind>            hire or level up a specialist (advisor, efficiency, consultant, negotiator)
  target <kind> <idx>    point a specialist at an investment
  upgrade <id>           buy an upgrade
  retire                 bank this run's earnings for a higher multiplier
  history                recent retirements
  save                   save now`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(command), "/"))
	if len(fields) == 0 {
		return helpText
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	cat := s.Engine.Catalog()

	switch name {
	case "status":
		return notifier.FormatStatus(notifier.StatusFromEngine(s.Engine))

	case "buy":
		idx, ok := indexArg(args, 0)
		if !ok || !cat.ValidIndex(idx) {
			return "usage: buy <idx> [n]"
		}
		n := 1
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				return "usage: buy <idx> [n]"
			}
			n = v
		}
		cost := s.Engine.CostToBuy(idx, n)
		if !s.Engine.BuyInvestment(idx, n) {
			return fmt.Sprintf("Cannot afford %d x %s ($%s).", n, cat.Investments[idx].Name, notifier.FormatMoney(cost))
		}
		return fmt.Sprintf("Bought %d x %s for $%s.", n, cat.Investments[idx].Name, notifier.FormatMoney(cost))

	case "start":
		idx, ok := indexArg(args, 0)
		if !ok || !cat.ValidIndex(idx) {
			return "usage: start <idx>"
		}
		if !s.Engine.StartProduction(idx) {
			return fmt.Sprintf("%s cannot start right now.", cat.Investments[idx].Name)
		}
		return fmt.Sprintf("%s started (%s).", cat.Investments[idx].Name,
			notifier.FormatDuration(s.Engine.ProductionDuration(idx)))

	case "manager":
		idx, ok := indexArg(args, 0)
		if !ok || !cat.ValidIndex(idx) {
			return "usage: manager <idx>"
		}
		cost := s.Engine.ManagerCost(idx)
		if !s.Engine.HireManager(idx) {
			return fmt.Sprintf("Cannot afford a manager for %s ($%s).", cat.Investments[idx].Name, notifier.FormatMoney(cost))
		}
		return fmt.Sprintf("Manager for %s hired for $%s.", cat.Investments[idx].Name, notifier.FormatMoney(cost))

	case "hire":
		if len(args) < 1 || !model.SpecialistKind(strings.ToLower(args[0])).Valid() {
			return "usage: hire <advisor|efficiency|consultant|negotiator>"
		}
		kind := model.SpecialistKind(strings.ToLower(args[0]))
		cost := s.Engine.SpecialistCost(kind)
		if !s.Engine.HireSpecialist(kind) {
			return fmt.Sprintf("Cannot afford the %s ($%s).", kind, notifier.FormatMoney(cost))
		}
		return fmt.Sprintf("Hired %s for $%s.", kind, notifier.FormatMoney(cost))

	case "target":
		if len(args) < 2 || !model.SpecialistKind(strings.ToLower(args[0])).Valid() {
			return "usage: target <kind> <idx>"
		}
		kind := model.SpecialistKind(strings.ToLower(args[0]))
		idx, ok := indexArg(args, 1)
		if !ok || !s.Engine.SetSpecialistTarget(kind, idx) {
			return "usage: target <kind> <idx>"
		}
		return fmt.Sprintf("%s now works on %s.", kind, cat.Investments[idx].Name)

	case "upgrade":
		id, ok := indexArg(args, 0)
		if !ok {
			return "usage: upgrade <id>"
		}
		up, known := cat.Upgrade(id)
		if !known {
			return fmt.Sprintf("Unknown upgrade %d.", id)
		}
		if !s.Engine.BuyUpgrade(id) {
			return fmt.Sprintf("Cannot buy %s ($%s).", up.Name, notifier.FormatMoney(up.Cost))
		}
		return fmt.Sprintf("Bought %s.", up.Name)

	case "retire":
		evt, ok := s.Engine.RetireIfWorthwhile()
		if !ok {
			_, potential := s.Engine.Multipliers()
			return fmt.Sprintf("Retiring now would not raise the multiplier (x%.2f).", potential)
		}
		return notifier.FormatRetirement(evt)

	case "history":
		events, err := s.Recorder.RecentRetirements(10)
		if err != nil {
			s.Logger.Error("read history", "err", err)
			return "History unavailable."
		}
		if len(events) == 0 {
			return "No retirements yet."
		}
		lines := make([]string, len(events))
		for i, evt := range events {
			lines[i] = notifier.FormatRetirement(evt)
		}
		return strings.Join(lines, "\n")

	case "save":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Engine.Save(ctx); err != nil {
			s.Logger.Error("manual save", "err", err)
			return "Save failed."
		}
		return "Saved."

	default:
		return helpText
	}
}

func indexArg(args []string, pos int) (int, bool) {
	if pos >= len(args) {
		return 0, false
	}
	v, err := strconv.Atoi(args[pos])
	return v, err == nil
}
