package callback

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
)

// Completion returns the JS-callable function complete(id, value) for r.
// The raw value is handed to the waiting caller, which decodes it; an
// unknown id is not an error.
func Completion(r *RoundTrip[any]) jsbridge.Function {
	return func(args jsbridge.Args) (any, error) {
		id, err := args.Int(0)
		if err != nil {
			return nil, fmt.Errorf("request id: %w", err)
		}
		r.Complete(id, args.Get(1))
		return nil, nil
	}
}

// Base64 decodes an answer carrying base64 data. Anything else yields
// fallback.
func Base64(v any, fallback []byte, logger *slog.Logger) []byte {
	s, ok := v.(string)
	if !ok {
		logger.Debug("answer is not a string; using original", "type", fmt.Sprintf("%T", v))
		return fallback
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		logger.Debug("answer is not base64; using original", "error", err)
		return fallback
	}
	return data
}

// String returns the answer when it is a string, else fallback.
func String(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

var errNoAnswer = errors.New("no answer")

// Decode converts an answer into T through its JSON form.
func Decode[T any](v any) (T, error) {
	var out T
	if v == nil {
		return out, errNoAnswer
	}
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

// EncodeBase64 is the wire form of binary payloads.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
