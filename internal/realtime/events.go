package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pribylovaa/go-social-client/internal/models"
)

// legacyTypes старые имена типов бэкенда и их нормализованные значения.
var legacyTypes = map[string]string{
	"user_online": models.EventOnlineStatusUpdate,
}

var validate = validator.New()

// parseEvent читает поле type и сохраняет сообщение целиком как Payload.
func parseEvent(data []byte) (models.Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return models.Event{}, err
	}
	if head.Type == "" {
		return models.Event{}, fmt.Errorf("message without type")
	}

	typ := head.Type
	if norm, ok := legacyTypes[typ]; ok {
		typ = norm
	}

	return models.Event{Type: typ, Payload: json.RawMessage(data)}, nil
}

// Decode разбирает полезную нагрузку события в dst и валидирует её тегами validate.
func Decode(ev models.Event, dst any) error {
	const op = "realtime/events/Decode"

	if err := json.Unmarshal(ev.Payload, dst); err != nil {
		return fmt.Errorf("%s: %s: %w", op, ev.Type, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%s: %s: %w", op, ev.Type, err)
	}

	return nil
}
