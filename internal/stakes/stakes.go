// Package stakes resolves the small/big blind pair a group reports under.
package stakes

import (
	"math"
	"strconv"
	"strings"

	"bankroll/internal/models"
)

// Stakes is a small blind / big blind pair.
type Stakes struct {
	SB float64 `json:"sb"`
	BB float64 `json:"bb"`
}

// String formats the pair the way balances store it, e.g. "1/3" or "0.5/1".
func (s Stakes) String() string {
	return Format(s.SB, s.BB)
}

// Format renders sb/bb with the shortest decimal representation of each half.
func Format(sb, bb float64) string {
	return strconv.FormatFloat(sb, 'f', -1, 64) + "/" + strconv.FormatFloat(bb, 'f', -1, 64)
}

// ParseLegacy splits a free-text "<sb>/<bb>" value. A half that is missing or
// not numeric comes back nil.
func ParseLegacy(s string) (sb, bb *float64) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "/")
	sb = parseHalf(parts[0])
	if len(parts) > 1 {
		bb = parseHalf(parts[1])
	}
	return sb, bb
}

func parseHalf(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Resolve returns the group's fixed stakes. ok is false when stakes are not
// fixed, settings are absent, or neither the numeric fields nor the legacy
// text yield both halves; the reporting form then collects SB/BB itself.
func Resolve(settings *models.GroupSettings) (Stakes, bool) {
	if settings == nil || !settings.StakesFixed {
		return Stakes{}, false
	}
	if settings.StakesSB != nil && settings.StakesBB != nil {
		return Stakes{SB: *settings.StakesSB, BB: *settings.StakesBB}, true
	}
	var legacy string
	if settings.StakesValue != nil {
		legacy = *settings.StakesValue
	}
	sb, bb := ParseLegacy(legacy)
	if sb != nil && bb != nil {
		return Stakes{SB: *sb, BB: *bb}, true
	}
	return Stakes{}, false
}

// ResolveGroup is Resolve over a possibly nil group.
func ResolveGroup(g *models.Group) (Stakes, bool) {
	if g == nil {
		return Stakes{}, false
	}
	return Resolve(g.Settings)
}

// FormDefaults returns the SB/BB pre-fill for the settings form regardless of
// StakesFixed: numeric fields first, then the legacy text.
func FormDefaults(settings *models.GroupSettings) (sb, bb *float64) {
	if settings == nil {
		return nil, nil
	}
	var legacySB, legacyBB *float64
	if settings.StakesValue != nil {
		legacySB, legacyBB = ParseLegacy(*settings.StakesValue)
	}
	sb, bb = settings.StakesSB, settings.StakesBB
	if sb == nil {
		sb = legacySB
	}
	if bb == nil {
		bb = legacyBB
	}
	return sb, bb
}

// Validate checks the invariant enforced when settings are saved: fixed
// stakes need both halves present and positive.
func Validate(fixed bool, sb, bb *float64) bool {
	if !fixed {
		return true
	}
	return sb != nil && bb != nil && *sb > 0 && *bb > 0
}
