package recordform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devel-adr/medistream/internal/model"
)

// load fills the bindings with the values of rec.
func (fb *formBindings) load(rec model.Record) {
	*fb = formBindings{}

	switch r := rec.(type) {
	case model.Medication:
		fb.lab, fb.drug = r.Lab, r.Drug
		fb.ingredient = r.ActiveIngredient
		fb.area = r.TherapeuticArea
		fb.indication = r.Indication
		fb.phase = r.Phase
		fb.nation = r.Nation
		fb.status = r.Status
		fb.notes = r.Notes

	case model.UnmetNeed:
		fb.lab, fb.drug = r.Lab, r.Drug
		fb.area = r.TherapeuticArea
		fb.unmetNeed = r.Need
		fb.population = r.Population
		fb.evidence = r.Evidence
		fb.score = strconv.Itoa(r.Score)

	case model.PharmaTactic:
		fb.lab, fb.drug = r.Lab, r.Drug
		fb.tactic = r.Tactic
		fb.owner = r.Owner
		fb.status = r.Status
		if r.UnmetNeedID != nil {
			fb.unmetNeedRef = strconv.FormatInt(*r.UnmetNeedID, 10)
		}
		if r.DueDate != nil {
			fb.dueDate = r.DueDate.Format(dateLayout)
		}
	}
}

// record builds a row of kind from the bindings. The key and creation
// time of original, when set, are kept so the result updates that row.
func (fb *formBindings) record(kind model.DatasetKind, original model.Record) (model.Record, error) {
	var (
		id      int64
		created time.Time
	)
	if original != nil {
		id = original.RecordID()
		created = createdAt(original)
	}

	lab, drug := strings.TrimSpace(fb.lab), strings.TrimSpace(fb.drug)

	switch kind {
	case model.KindMedications:
		return model.Medication{
			ID:               id,
			Lab:              lab,
			Drug:             drug,
			ActiveIngredient: strings.TrimSpace(fb.ingredient),
			TherapeuticArea:  strings.TrimSpace(fb.area),
			Indication:       strings.TrimSpace(fb.indication),
			Phase:            fb.phase,
			Nation:           strings.TrimSpace(fb.nation),
			Status:           strings.TrimSpace(fb.status),
			Notes:            strings.TrimSpace(fb.notes),
			CreatedAt:        created,
		}, nil

	case model.KindUnmetNeeds:
		score, err := parseScore(fb.score)
		if err != nil {
			return nil, err
		}
		return model.UnmetNeed{
			ID:              id,
			Lab:             lab,
			Drug:            drug,
			TherapeuticArea: strings.TrimSpace(fb.area),
			Need:            strings.TrimSpace(fb.unmetNeed),
			Population:      strings.TrimSpace(fb.population),
			Evidence:        strings.TrimSpace(fb.evidence),
			Score:           score,
			CreatedAt:       created,
		}, nil

	case model.KindTactics:
		t := model.PharmaTactic{
			ID:        id,
			Lab:       lab,
			Drug:      drug,
			Tactic:    strings.TrimSpace(fb.tactic),
			Owner:     strings.TrimSpace(fb.owner),
			Status:    fb.status,
			CreatedAt: created,
		}
		if ref := strings.TrimSpace(fb.unmetNeedRef); ref != "" {
			n, err := strconv.ParseInt(ref, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid unmet need id %q", ref)
			}
			t.UnmetNeedID = &n
		}
		if due := strings.TrimSpace(fb.dueDate); due != "" {
			d, err := time.Parse(dateLayout, due)
			if err != nil {
				return nil, fmt.Errorf("invalid due date %q", due)
			}
			t.DueDate = &d
		}
		return t, nil
	}

	return nil, fmt.Errorf("unknown dataset kind %q", kind)
}

func createdAt(rec model.Record) time.Time {
	switch r := rec.(type) {
	case model.Medication:
		return r.CreatedAt
	case model.UnmetNeed:
		return r.CreatedAt
	case model.PharmaTactic:
		return r.CreatedAt
	}
	return time.Time{}
}

func parseScore(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 10 {
		return 0, fmt.Errorf("score must be a whole number from 0 to 10")
	}
	return n, nil
}

func validateScore(s string) error {
	_, err := parseScore(s)
	return err
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
