package outbox

import (
	"encoding/json"

	"github.com/careflowhq/careflow/internal/shared/domain"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// decodeMetadata maps persisted domain.EventMetadata JSON onto the wire
// metadata carried by the event envelope.
func decodeMetadata(raw json.RawMessage, out *eventbus.EventMetadata) error {
	var md domain.EventMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return err
	}
	out.UserID = md.UserID
	if md.CorrelationID != uuid.Nil {
		out.CorrelationID = md.CorrelationID.String()
	}
	if md.CausationID != uuid.Nil {
		out.CausationID = md.CausationID.String()
	}
	return nil
}

func encodeEnvelope(envelope eventbus.ConsumedEvent) ([]byte, error) {
	return json.Marshal(envelope)
}
