package helper

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GenerateUUID creates a random unique UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %v", err)
	}
	return id.String(), nil
}

// PrettyPrint writes v to w as indented JSON.
func PrettyPrint(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Fprintln(w, string(b))
}

// CloseAll closes every value that is an io.Closer, logging failures.
func CloseAll(values ...any) {
	for _, v := range values {
		c, ok := v.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing resource")
		}
	}
}
