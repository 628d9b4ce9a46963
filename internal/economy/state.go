package economy

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"OilTycoon/internal/model"
)

const snapshotVersion = 1

// legacyCooldown is the status name older saves used for the manager cooldown.
const legacyCooldown = "CEO_COOLDOWN"

// ErrCorruptSnapshot marks persisted bytes that cannot be turned into a state.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	State    json.RawMessage `json:"state"`
}

// storedInvestment accepts the is_running flag written by older saves.
type storedInvestment struct {
	model.InvestmentState
	IsRunning *bool `json:"is_running,omitempty"`
}

type storedState struct {
	model.EconomyState
	Investments []storedInvestment `json:"investments"`
}

func encodeSnapshot(s *model.EconomyState) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	sum, err := checksum(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		Version:  snapshotVersion,
		Checksum: sum,
		State:    body,
	})
}

func decodeSnapshot(data []byte) (*model.EconomyState, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	body := data
	if env.State != nil {
		if env.Version > snapshotVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, env.Version)
		}
		sum, err := checksum(env.State)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if sum != env.Checksum {
			return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
		}
		body = env.State
	}

	var stored storedState
	if err := json.Unmarshal(body, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if stored.Investments == nil {
		return nil, fmt.Errorf("%w: no investments", ErrCorruptSnapshot)
	}

	st := stored.EconomyState
	st.Investments = make([]model.InvestmentState, len(stored.Investments))
	for i, inv := range stored.Investments {
		if inv.Status == "" && inv.IsRunning != nil && *inv.IsRunning {
			inv.Status = model.StatusRunning
		}
		st.Investments[i] = inv.InvestmentState
	}
	return &st, nil
}

// checksum hashes the canonical form of a JSON document: object keys sorted,
// whitespace dropped and numbers in their shortest float64 spelling.
func checksum(body []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func (e *Engine) freshState(now int64) *model.EconomyState {
	s := &model.EconomyState{
		RunID:        uuid.NewString(),
		Balance:      e.grant,
		RunStartedAt: now,
		LastSavedAt:  now,
		Investments:  make([]model.InvestmentState, len(e.cat.Investments)),
		Upgrades:     []int{},
		Achievements: []int{},
	}
	for i := range s.Investments {
		s.Investments[i].Status = model.StatusIdle
	}
	for _, kind := range model.SpecialistKinds {
		s.Specialists = append(s.Specialists, e.freshSpecialist(kind))
	}
	return s
}

func (e *Engine) freshSpecialist(kind model.SpecialistKind) model.SpecialistState {
	def, _ := e.cat.Specialist(kind)
	return model.SpecialistState{Kind: kind, Target: def.DefaultTarget}
}

// migrate backfills whatever an older or foreign save left out so the state
// matches the loaded catalog.
func (e *Engine) migrate(s *model.EconomyState, now int64) {
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}
	if s.RunStartedAt == 0 {
		s.RunStartedAt = now
	}
	if s.LastSavedAt == 0 {
		s.LastSavedAt = now
	}

	n := len(e.cat.Investments)
	if len(s.Investments) > n {
		s.Investments = s.Investments[:n]
	}
	for len(s.Investments) < n {
		s.Investments = append(s.Investments, model.InvestmentState{Status: model.StatusIdle})
	}
	for i := range s.Investments {
		inv := &s.Investments[i]
		inv.Level = max(inv.Level, 0)
		inv.ManagerLevel = max(inv.ManagerLevel, 0)
		inv.EfficiencyStacks = max(inv.EfficiencyStacks, 0)
		inv.NegotiatorTriggers = max(inv.NegotiatorTriggers, 0)
		inv.ProgressMs = max(inv.ProgressMs, 0)
		switch inv.Status {
		case model.StatusIdle, model.StatusRunning:
		case model.StatusManagerCooldown, legacyCooldown:
			inv.Status = model.StatusManagerCooldown
			if inv.ManagerLevel == 0 {
				inv.Status = model.StatusIdle
				inv.ProgressMs = 0
			}
		default:
			inv.Status = model.StatusIdle
			inv.ProgressMs = 0
		}
	}

	specialists := make([]model.SpecialistState, 0, len(model.SpecialistKinds))
	for pos, kind := range model.SpecialistKinds {
		spec := e.freshSpecialist(kind)
		if found := findSpecialist(s.Specialists, kind, pos); found != nil {
			spec = *found
			spec.Kind = kind
			spec.Level = max(spec.Level, 0)
			spec.TimerMs = max(spec.TimerMs, 0)
			if spec.Target < 0 || spec.Target >= n {
				spec.Target = e.freshSpecialist(kind).Target
			}
		}
		specialists = append(specialists, spec)
	}
	s.Specialists = specialists

	s.Upgrades = dedupe(s.Upgrades)
	s.Achievements = dedupe(s.Achievements)
}

// findSpecialist matches by kind, falling back to position for saves that
// stored specialists without a kind.
func findSpecialist(list []model.SpecialistState, kind model.SpecialistKind, pos int) *model.SpecialistState {
	for i := range list {
		if list[i].Kind == kind {
			return &list[i]
		}
	}
	if pos < len(list) && list[pos].Kind == "" {
		return &list[pos]
	}
	return nil
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
