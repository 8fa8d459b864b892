// Package events publishes match lifecycle events for downstream consumers
// (notification fan-out, analytics). Publishing is best-effort: a broker
// hiccup never fails the request that produced the event.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/jasmine/pkg/kafka"
	"github.com/Ramsey-B/jasmine/pkg/models"
)

const (
	EventTypeMatchComputed = "match.computed"
	EventTypeMatchPage     = "match.page"
)

// publisher is the slice of kafka.Producer the emitter needs
type publisher interface {
	PublishMatchEvent(ctx context.Context, event *kafka.MatchEvent) error
}

// Emitter publishes match events to Kafka. Publishing happens off the
// request goroutine so a slow broker never stalls a scoring request.
type Emitter struct {
	producer publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil producer disables publishing.
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	e := &Emitter{logger: logger}
	if producer != nil {
		e.producer = producer
	}
	return e
}

// MatchComputed publishes the outcome of one bidirectional pair scoring
func (e *Emitter) MatchComputed(ctx context.Context, result *models.MatchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to encode match result event")
		return
	}

	e.publish(ctx, &kafka.MatchEvent{
		EventType:    EventTypeMatchComputed,
		UserID:       result.UserID1,
		TargetUserID: result.UserID2,
		Data:         data,
	})
}

// pageEvent is the trimmed payload for page events; breakdowns are bulky
// and downstream consumers only need the ranked ids.
type pageEvent struct {
	Page            int      `json:"page"`
	PageSize        int      `json:"page_size"`
	TotalConsidered int      `json:"total_considered"`
	Partial         bool     `json:"partial"`
	CandidateIDs    []string `json:"candidate_ids"`
}

// MatchPage publishes a summary of one served discovery page
func (e *Emitter) MatchPage(ctx context.Context, viewerID string, page *models.CandidatePage) {
	ids := make([]string, 0, len(page.Candidates))
	for _, candidate := range page.Candidates {
		ids = append(ids, candidate.UserID)
	}

	data, err := json.Marshal(pageEvent{
		Page:            page.Page,
		PageSize:        page.PageSize,
		TotalConsidered: page.TotalConsidered,
		Partial:         page.Partial,
		CandidateIDs:    ids,
	})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to encode match page event")
		return
	}

	e.publish(ctx, &kafka.MatchEvent{
		EventType: EventTypeMatchPage,
		UserID:    viewerID,
		Data:      data,
	})
}

func (e *Emitter) publish(ctx context.Context, event *kafka.MatchEvent) {
	if e.producer == nil {
		return
	}

	// Detached from the request context so the publish survives the
	// response being written, while keeping its trace values
	publishCtx := context.WithoutCancel(ctx)
	go func() {
		if err := e.producer.PublishMatchEvent(publishCtx, event); err != nil {
			e.logger.WithContext(publishCtx).WithError(err).WithFields(map[string]any{
				"event_type": event.EventType,
			}).Warn("Match event dropped")
		}
	}()
}
