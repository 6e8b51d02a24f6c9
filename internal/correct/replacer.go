package correct

import (
	"errors"
	"fmt"
	"strings"

	"github.com/factgraph/factgraph/internal/model"
)

// ErrLengthMismatch reports a flagged/corrected count disagreement in
// Repair. It is raised before any substitution happens.
var ErrLengthMismatch = errors.New("flagged and corrected triple counts differ")

// Repair rewrites the original output by substituting the verbalized
// form of every flagged triple with the verbalized form of its
// correction. Verbalizations carry no trailing period here, unlike the
// judge's hypothesis form. Each substitution is a literal
// all-occurrences replacement applied to the result of the previous
// one, so later substitutions see earlier edits. A triple whose
// verbalization is blank is skipped without effect.
func Repair(original string, flagged, corrected []model.RelationTriple) (string, error) {
	if len(flagged) != len(corrected) {
		return "", fmt.Errorf("%w: %d flagged, %d corrected", ErrLengthMismatch, len(flagged), len(corrected))
	}
	repaired := original
	for i, old := range flagged {
		oldSentence := old.Sentence()
		if strings.TrimSpace(oldSentence) == "" {
			continue
		}
		repaired = strings.ReplaceAll(repaired, oldSentence, corrected[i].Sentence())
	}
	return repaired, nil
}
