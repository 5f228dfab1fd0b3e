package ledger

import (
	"chantier-backend/internal/errs"
	"chantier-backend/internal/storage"
)

// transitions lists every allowed state change. FINALIZED is terminal.
var transitions = map[storage.PeriodState]storage.PeriodState{
	storage.PeriodOpen: storage.PeriodFinalized,
}

// ensureOpen is the single guard every mutating operation goes through.
func ensureOpen(p *storage.Period) error {
	if p.State != storage.PeriodOpen {
		return errs.E(errs.PreconditionFailed, "period %d is finalized and can no longer be modified", p.Sequence)
	}
	return nil
}

func ensureFinalized(p *storage.Period) error {
	if p.State != storage.PeriodFinalized {
		return errs.E(errs.PreconditionFailed, "previous period must be finalized first (period %d is still open)", p.Sequence)
	}
	return nil
}

func transition(p *storage.Period, to storage.PeriodState) error {
	if next, ok := transitions[p.State]; !ok || next != to {
		if p.State == storage.PeriodFinalized {
			return errs.E(errs.PreconditionFailed, "period %d is already finalized", p.Sequence)
		}
		return errs.E(errs.PreconditionFailed, "period %d cannot move from %s to %s", p.Sequence, p.State, to)
	}
	p.State = to
	return nil
}
