package ingestionhandlers

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/contract"
	ingestionevents "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/events"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/utils"
)

// HandleMatchSubmitted processes one match submission to completion. The
// message is acknowledged (nil error) only when its terminal outcome has
// been written to the task store; any error return leaves it unacked for
// redelivery.
func (h *IngestionHandlers) HandleMatchSubmitted(msg *message.Message) ([]*message.Message, error) {
	return h.wrap("HandleMatchSubmitted", h.handleMatchSubmitted)(msg)
}

func (h *IngestionHandlers) handleMatchSubmitted(ctx context.Context, msg *message.Message) ([]*message.Message, error) {
	taskID := msg.Metadata.Get(TaskIDMetadataKey)
	if taskID == "" {
		// Messages published outside the producer adapter have no task
		// handle; fall back to the message id so the outcome is still
		// observable.
		taskID = msg.UUID
	}

	parsed, err := contract.Decode(msg.Payload)
	if err != nil {
		var verr *contract.ValidationError
		if errors.As(err, &verr) {
			h.logger.WarnContext(ctx, "rejecting malformed submission",
				attr.TaskID(taskID),
				attr.Error(verr),
			)
			// Finalize and ack: redelivering a malformed payload cannot help.
			if err := h.service.RecordContractViolation(ctx, taskID, verr); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}

	result, err := h.service.ProcessMatchSubmission(ctx, taskID, parsed)
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		// Terminal business failure, already recorded. Ack without output.
		return nil, nil
	}

	success := result.Success
	out, err := utils.NewMessage(middleware.MessageCorrelationID(msg), ingestionevents.MatchIngestedPayloadV1{
		TaskID:      success.TaskID,
		MatchID:     success.MatchID,
		Action:      string(success.Action),
		FallbackKey: success.FallbackKey,
	})
	if err != nil {
		return nil, err
	}

	return []*message.Message{out}, nil
}
