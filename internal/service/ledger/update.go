package ledger

import (
	"chantier-backend/internal/errs"
	"chantier-backend/internal/storage"
)

type updatePlan struct {
	updated []storage.Line
	removed []int64
	added   []storage.Line
}

// planUpdate validates the whole input against the period before anything
// is written.
func planUpdate(p *storage.Period, in UpdateInput) (*updatePlan, error) {
	byID := make(map[int64]storage.Line)
	for _, line := range p.AllLines() {
		byID[line.ID] = line
	}

	plan := &updatePlan{}
	seen := make(map[int64]bool)

	lookup := func(id int64, origin storage.LineOrigin) (storage.Line, error) {
		line, ok := byID[id]
		if !ok {
			return line, errs.E(errs.InvalidInput, "line %d does not belong to period %d", id, p.Sequence)
		}
		if line.Origin != origin {
			return line, errs.E(errs.InvalidInput, "line %d is a %s line, not %s", id, line.Origin, origin)
		}
		if seen[id] {
			return line, errs.E(errs.InvalidInput, "line %d is listed twice", id)
		}
		seen[id] = true
		return line, nil
	}

	for i, li := range in.Lines {
		if li.ID == 0 {
			return nil, errs.E(errs.InvalidInput, "lines[%d]: id is required", i)
		}
		if li.Remove {
			return nil, errs.E(errs.InvalidInput, "line %d comes from the order and cannot be removed", li.ID)
		}
		line, err := lookup(li.ID, storage.OriginOriginal)
		if err != nil {
			return nil, err
		}
		line, err = applyProgress(line, li)
		if err != nil {
			return nil, err
		}
		plan.updated = append(plan.updated, line)
	}

	position := 0
	for _, line := range p.ChangeOrderLines {
		position = max(position, line.Position)
	}

	for _, li := range in.ChangeOrderLines {
		if li.ID == 0 {
			if li.Remove {
				return nil, errs.E(errs.InvalidInput, "cannot remove a change-order line without id")
			}
			position++
			line, err := newChangeOrderLine(li, p.Sequence, position)
			if err != nil {
				return nil, err
			}
			if li.hasProgress() {
				if line, err = applyProgress(line, li); err != nil {
					return nil, err
				}
			}
			plan.added = append(plan.added, line)
			continue
		}

		line, err := lookup(li.ID, storage.OriginChangeOrder)
		if err != nil {
			return nil, err
		}
		if li.Remove {
			if line.Since != p.Sequence {
				return nil, errs.E(errs.PreconditionFailed,
					"change-order line %d was carried forward from period %d and cannot be removed", line.ID, line.Since)
			}
			plan.removed = append(plan.removed, line.ID)
			continue
		}
		line, err = applyProgress(line, li)
		if err != nil {
			return nil, err
		}
		plan.updated = append(plan.updated, line)
	}

	return plan, nil
}
