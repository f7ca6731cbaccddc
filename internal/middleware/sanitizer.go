package middleware

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/pkg/security"
)

var passwordFields = map[string]bool{
	"password":         true,
	"current_password": true,
	"new_password":     true,
}

// Sanitizer rewrites JSON request bodies with every string value cleaned.
// Password fields and non-JSON bodies are left alone.
func Sanitizer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !isJSON(c) || len(c.Body()) == 0 {
			return c.Next()
		}

		// Numbers stay json.Number so large integers are written back verbatim.
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		var body interface{}
		if err := dec.Decode(&body); err != nil || dec.More() {
			return c.Next()
		}

		clean, err := json.Marshal(security.SanitizeValue(body, passwordFields))
		if err != nil {
			return c.Next()
		}
		c.Request().SetBody(clean)
		return c.Next()
	}
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON)
}
