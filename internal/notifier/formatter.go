package notifier

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"OilTycoon/internal/economy"
	"OilTycoon/internal/model"
)

var moneySuffixes = []string{
	"", "K", "M", "B", "T", "Qa", "Qi", "Sx", "Sp", "Oc", "No",
	"Dc", "Ud", "Dd", "Td", "Qad", "Qid", "Sxd", "Spd", "Od", "Nd", "V",
}

// FormatMoney renders amount with two decimals below 1000 and as three
// significant digits plus a suffix (K, M, B, T, Qa ...) above.
func FormatMoney(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}
	if amount < 0 {
		return "-" + FormatMoney(-amount)
	}
	if amount < 1000 {
		return strconv.FormatFloat(amount, 'f', 2, 64)
	}

	digits := len(strconv.FormatFloat(math.Floor(amount), 'f', 0, 64))
	group := (digits - 1) / 3
	short := roundSignificant(amount/math.Pow(1000, float64(group)), 3)
	if short >= 1000 {
		group++
		short = roundSignificant(short/1000, 3)
	}
	if group >= len(moneySuffixes) {
		return strconv.FormatFloat(amount, 'e', 2, 64)
	}
	return strconv.FormatFloat(short, 'f', -1, 64) + moneySuffixes[group]
}

func roundSignificant(v float64, n int) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', n, 64), 64)
	return r
}

// FormatDuration renders milliseconds as ms, s, m or h.
func FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", int64(math.Round(ms)))
	}
	sec := ms / 1000
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	min := sec / 60
	if min < 60 {
		return fmt.Sprintf("%.1fm", min)
	}
	return fmt.Sprintf("%.1fh", min/60)
}

// InvestmentLine is one row of the status report.
type InvestmentLine struct {
	Name         string
	Level        int
	Status       model.InvestmentStatus
	ManagerLevel int
	NextCost     float64
	Revenue      float64
	DurationMs   float64
}

// SpecialistLine is one hired specialist in the status report.
type SpecialistLine struct {
	Name   string
	Level  int
	Target string
	Active bool
}

// StatusView is everything FormatStatus prints.
type StatusView struct {
	RunID       string
	Balance     float64
	RunEarnings float64
	Lifetime    float64
	Multiplier  float64
	Potential   float64
	CanRetire   bool
	Investments []InvestmentLine
	Specialists []SpecialistLine
}

// StatusFromEngine gathers a StatusView from the live engine.
func StatusFromEngine(eng *economy.Engine) StatusView {
	state := eng.Snapshot()
	cat := eng.Catalog()
	current, potential := eng.Multipliers()

	v := StatusView{
		RunID:       state.RunID,
		Balance:     state.Balance,
		RunEarnings: state.RunEarnings,
		Lifetime:    state.Lifetime(),
		Multiplier:  current,
		Potential:   potential,
		CanRetire:   potential > current,
	}
	for i, def := range cat.Investments {
		inv := state.Investments[i]
		v.Investments = append(v.Investments, InvestmentLine{
			Name:         def.Name,
			Level:        inv.Level,
			Status:       inv.Status,
			ManagerLevel: inv.ManagerLevel,
			NextCost:     eng.CostToBuy(i, 1),
			Revenue:      eng.RevenuePerCycle(i),
			DurationMs:   eng.ProductionDuration(i),
		})
	}
	now := economy.SystemClock{}.NowMs()
	for _, spec := range state.Specialists {
		if spec.Level == 0 {
			continue
		}
		def, _ := cat.Specialist(spec.Kind)
		target := "-"
		if cat.ValidIndex(spec.Target) {
			target = cat.Investments[spec.Target].Name
		}
		v.Specialists = append(v.Specialists, SpecialistLine{
			Name:   def.Name,
			Level:  spec.Level,
			Target: target,
			Active: spec.IsActive(now),
		})
	}
	return v
}

// FormatStatus renders the economy for the console and the status command.
func FormatStatus(v StatusView) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "Oil Tycoon | run %s\n\n", v.RunID)
	fmt.Fprintf(&b, "Balance:    $%s\n", FormatMoney(v.Balance))
	fmt.Fprintf(&b, "This run:   $%s\n", FormatMoney(v.RunEarnings))
	fmt.Fprintf(&b, "Lifetime:   $%s\n", wholeDollars(p, v.Lifetime))
	fmt.Fprintf(&b, "Multiplier: x%.2f", v.Multiplier)
	if v.CanRetire {
		fmt.Fprintf(&b, " (retire for x%.2f)", v.Potential)
	}
	b.WriteString("\n\nInvestments:\n")
	for i, inv := range v.Investments {
		fmt.Fprintf(&b, "  [%d] %-18s lv %-4d %-16s mgr %d  next $%s  yields $%s / %s\n",
			i, inv.Name, inv.Level, inv.Status, inv.ManagerLevel,
			FormatMoney(inv.NextCost), FormatMoney(inv.Revenue), FormatDuration(inv.DurationMs))
	}
	if len(v.Specialists) > 0 {
		b.WriteString("\nSpecialists:\n")
		for _, s := range v.Specialists {
			fmt.Fprintf(&b, "  %-20s lv %-3d -> %s", s.Name, s.Level, s.Target)
			if s.Active {
				b.WriteString(" (active)")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatRetirement summarises a prestige reset.
func FormatRetirement(evt model.RetirementEvent) string {
	return fmt.Sprintf("Retired after %s with $%s earned. Multiplier x%.2f -> x%.2f.",
		FormatDuration(float64(evt.RunDurationMs)), FormatMoney(evt.RunEarnings),
		evt.MultiplierBefore, evt.MultiplierAfter)
}

// wholeDollars prints amount with thousands separators while it fits an int64.
func wholeDollars(p *message.Printer, amount float64) string {
	if amount >= 1e18 || amount <= -1e18 {
		return FormatMoney(amount)
	}
	return p.Sprintf("%d", int64(math.Floor(amount)))
}
