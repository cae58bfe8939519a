package srs

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality is the self-reported recall rating submitted after a card's
// answer is shown.
type Quality int

const (
	Blackout           Quality = iota // complete failure to recall
	Incorrect                         // wrong, but remembered once the answer was shown
	IncorrectFamiliar                 // wrong, but the answer felt familiar
	CorrectDifficult                  // right, with serious difficulty
	CorrectHesitation                 // right, after some hesitation
	Perfect                           // right, immediately
)

// PassThreshold is the lowest quality that counts as a successful recall.
const PassThreshold = CorrectDifficult

var qualityNames = [...]string{
	Blackout:          "blackout",
	Incorrect:         "incorrect",
	IncorrectFamiliar: "familiar",
	CorrectDifficult:  "difficult",
	CorrectHesitation: "hesitation",
	Perfect:           "perfect",
}

func (q Quality) String() string {
	if q.IsValid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// IsValid reports whether q is within 0..5.
func (q Quality) IsValid() bool {
	return q >= Blackout && q <= Perfect
}

// IsSuccess reports whether q counts as a successful recall.
func (q Quality) IsSuccess() bool {
	return q >= PassThreshold
}

// ParseQuality accepts either the digit ("0".."5") or the level name.
func ParseQuality(s string) (Quality, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		q := Quality(n)
		if !q.IsValid() {
			return 0, fmt.Errorf("%w: got %d", ErrInvalidQuality, n)
		}
		return q, nil
	}
	for i, name := range qualityNames {
		if name == s {
			return Quality(i), nil
		}
	}
	return 0, fmt.Errorf("%w: got %q", ErrInvalidQuality, s)
}
