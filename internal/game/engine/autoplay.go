package engine

import (
	"slices"

	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/discard"
	"github.com/thraizz/squeeze-server-go/internal/game/equivalence"
)

// choice is what a policy picked before replay forcing is applied.
type choice struct {
	card        cards.Card
	bucket      string
	bucketCards []cards.Card
	preferred   *PreferredOutcome
}

// autoplay picks a card for the seat to move and returns it as an autoplay
// event. ok is false when the seat has no policy or nothing to play; the
// returned event is then an illegal event and s is left as it was, except
// for RNG draws.
func (e *Engine) autoplay(s *State) (Event, bool) {
	seat := s.Turn
	kind := s.Policies[seat]
	if kind == PolicyNone {
		return illegal(ReasonNoPolicy, "no policy for %s", seat), false
	}
	legal := s.legalCards()
	if len(legal) == 0 {
		return illegal(ReasonNoCandidate, "no legal card for %s", seat), false
	}

	ch, ok := e.choose(s, kind, legal)
	if !ok {
		return illegal(ReasonNoCandidate, "policy %s found no candidate for %s", kind, seat), false
	}

	classes := make([]ClassCard, len(ch.bucketCards))
	for i, c := range ch.bucketCards {
		classes[i] = ClassCard{Class: classify(ch.bucket, seat, c, s.Classification), Card: c}
	}

	card := ch.card
	var fp Fingerprint
	var outcome *ReplayOutcome
	if seat.IsDefender() {
		fp = fingerprint(s, legal)
		if s.Replay.Enabled {
			card, outcome = e.force(s, fp, ch, legal, classes)
		}
	}

	if ch.preferred != nil && ch.preferred.Applied && ch.preferred.Chosen != nil && *ch.preferred.Chosen == card {
		s.PreferredUsed[seat] = true
	}

	play := cards.Play{Seat: seat, Card: card}
	detail := &AutoplayDetail{
		Bucket:      ch.bucket,
		BucketCards: ch.bucketCards,
		Classes:     classes,
		Preferred:   ch.preferred,
	}
	if seat.IsDefender() {
		chosen := classify(ch.bucket, seat, card, s.Classification)
		eq := equivalence.ClassOf(s.Deal, seat, card).ID()
		rec := newDecisionRecord(len(s.Decisions), seat, fp, ch, card, chosen, eq, classes)
		s.Decisions = append(slices.Clip(s.Decisions), rec)
		detail.Decision = &rec
	}

	e.logger.Debug("autoplay",
		zap.String("problem_id", s.ProblemID),
		zap.String("play", play.String()),
		zap.String("bucket", ch.bucket),
		zap.Int("bucket_size", len(ch.bucketCards)),
	)
	return Event{Type: EventAutoplay, Play: &play, Autoplay: detail, Replay: outcome}, true
}

// choose runs the seat's policy. Preferred discards take precedence over the
// policy kind.
func (e *Engine) choose(s *State, kind PolicyKind, legal []cards.Card) (choice, bool) {
	pref := preferredOutcome(s, legal)
	if pref != nil && pref.Applied {
		return choice{
			card:        *pref.Chosen,
			bucket:      BucketPreferred,
			bucketCards: []cards.Card{*pref.Chosen},
			preferred:   pref,
		}, true
	}

	uniform := func(bucket string, cs []cards.Card) choice {
		return choice{card: cs[s.RNG.Intn(len(cs))], bucket: bucket, bucketCards: cs, preferred: pref}
	}

	if kind == PolicyRandomLegal || !s.Turn.IsDefender() {
		return uniform(BucketLegal, legal), true
	}

	led, following := s.LedSuit()
	switch {
	case !following:
		return uniform(BucketLeadNone, legal), true
	case !s.Deal[s.Turn][led].Empty():
		threshold, ok := s.IdleThreatThreshold(led)
		if !ok {
			return uniform(BucketFollowBaseline, legal), true
		}
		var below, above []cards.Card
		for _, c := range legal {
			if c.Rank < threshold {
				below = append(below, c)
			} else {
				above = append(above, c)
			}
		}
		if len(below) > 0 {
			return uniform(BucketFollowBelow, below), true
		}
		return uniform(BucketFollowAbove, above), true
	}

	if s.Classification == nil {
		return choice{}, false
	}
	dc, err := discard.Choose(s.Classification, s.Turn, legal, &s.RNG)
	if err != nil {
		return choice{}, false
	}
	return choice{card: dc.Card, bucket: dc.Tier.String(), bucketCards: dc.Bucket, preferred: pref}, true
}

// force replaces the policy's card with the recorded one while the live
// decision matches the transcript. The policy has already run, so the RNG
// stays aligned with the recorded run.
func (e *Engine) force(s *State, fp Fingerprint, ch choice, legal []cards.Card, classes []ClassCard) (cards.Card, *ReplayOutcome) {
	idx := len(s.Decisions)
	t := s.Replay.Transcript
	if idx >= len(t.Decisions) {
		s.disableReplay(DisableTranscriptExhausted)
		e.logDisabled(s, idx, DisableTranscriptExhausted)
		return ch.card, &ReplayOutcome{Action: ReplayDisabled, Index: idx, Reason: DisableTranscriptExhausted}
	}
	rec := t.Decisions[idx]
	if !rec.Fingerprint.Equal(fp) {
		s.disableReplay(DisableFingerprintMismatch)
		e.logDisabled(s, idx, DisableFingerprintMismatch)
		return ch.card, &ReplayOutcome{Action: ReplayDisabled, Index: idx, Reason: DisableFingerprintMismatch, Card: &rec.Card}
	}

	if idx == s.Replay.Divergence {
		want := s.Replay.ForcedCard
		card, ok := want, slices.Contains(legal, want)
		if !ok {
			for _, cc := range classes {
				if cc.Class == s.Replay.ForcedClass && slices.Contains(legal, cc.Card) {
					card, ok = cc.Card, true
					break
				}
			}
		}
		if !ok {
			s.disableReplay(DisableCardUnavailable)
			e.logDisabled(s, idx, DisableCardUnavailable)
			return ch.card, &ReplayOutcome{Action: ReplayDisabled, Index: idx, Reason: DisableCardUnavailable, Card: &want}
		}
		s.Replay.Enabled = false
		e.logger.Info("forced divergent decision",
			zap.String("problem_id", s.ProblemID),
			zap.Int("decision_index", idx),
			zap.String("class", s.Replay.ForcedClass.String()),
			zap.String("card", card.String()),
		)
		return card, &ReplayOutcome{Action: ReplayForced, Index: idx, Card: &card}
	}

	card, ok := rec.Card, slices.Contains(legal, rec.Card)
	if !ok {
		for _, c := range legal {
			if equivalence.ClassOf(s.Deal, s.Turn, c).ID() == rec.Equivalence {
				card, ok = c, true
				break
			}
		}
	}
	if !ok {
		s.disableReplay(DisableCardUnavailable)
		e.logDisabled(s, idx, DisableCardUnavailable)
		return ch.card, &ReplayOutcome{Action: ReplayDisabled, Index: idx, Reason: DisableCardUnavailable, Card: &rec.Card}
	}
	return card, &ReplayOutcome{Action: ReplayForced, Index: idx, Card: &card}
}

func (e *Engine) logDisabled(s *State, idx int, reason DisableReason) {
	e.logger.Info("replay forcing disabled",
		zap.String("problem_id", s.ProblemID),
		zap.Int("decision_index", idx),
		zap.String("reason", string(reason)),
	)
}

// preferredOutcome evaluates the seat's preferred discards. It returns nil
// when the seat has none configured.
func preferredOutcome(s *State, legal []cards.Card) *PreferredOutcome {
	seat := s.Turn
	preferred := s.Preferred[seat]
	if len(preferred) == 0 {
		return nil
	}
	out := &PreferredOutcome{Preferred: preferred}
	led, following := s.LedSuit()
	switch {
	case !following:
		out.Reason = PreferredNotDiscard
		return out
	case !s.Deal[seat][led].Empty():
		out.Reason = PreferredCanFollowSuit
		return out
	case s.PreferredUsed[seat]:
		out.Reason = PreferredAlreadyUsed
		return out
	}
	for _, c := range preferred {
		if !s.Deal[seat].Has(c) {
			continue
		}
		chosen := c
		out.Chosen = &chosen
		if !slices.Contains(legal, c) {
			out.Reason = PreferredNotLegal
			return out
		}
		out.Applied = true
		out.Reason = PreferredApplied
		return out
	}
	out.Reason = PreferredNotInHand
	return out
}
