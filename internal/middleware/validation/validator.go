package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/language"
)

var xssPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

type field struct {
	name     string
	required bool
	// free text is length-limited and screened for script injection
	text bool
}

// bodyRules lists the JSON fields accepted by each POST endpoint.
var bodyRules = map[string][]field{
	"/api/v1/civicAI": {
		{name: "query", required: true, text: true},
		{name: "language"},
		{name: "user_id"},
	},
	"/api/v1/factCheck": {
		{name: "claim", required: true, text: true},
		{name: "language"},
	},
	"/api/v1/grievanceDraft": {
		{name: "issue", required: true, text: true},
		{name: "department", required: true, text: true},
		{name: "language"},
	},
}

// DefaultMaxFieldLength is the free-text limit in characters.
const DefaultMaxFieldLength = 5000

// CivicQueryPath is the route whose body rules also apply to queries that
// arrive over the websocket.
const CivicQueryPath = "/api/v1/civicAI"

type Config struct {
	// MaxFieldLength is counted in characters, not bytes, so Indic text is
	// not penalised for its UTF-8 width.
	MaxFieldLength int
	Logger         *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxFieldLength <= 0 {
		cfg.MaxFieldLength = DefaultMaxFieldLength
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		rules, ok := bodyRules[strings.TrimSuffix(c.Path(), "/")]
		if !ok || c.Method() != fiber.MethodPost {
			return c.Next()
		}

		if ct := c.Get(fiber.HeaderContentType); ct != "" && !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		var body map[string]interface{}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if err := checkBody(body, rules, cfg.MaxFieldLength); err != nil {
			if err.Suspicious {
				cfg.Logger.Warn("Potential XSS attempt",
					zap.String("ip", c.IP()),
					zap.String("path", c.Path()),
					zap.String("field", err.Field),
				)
			}
			return c.Status(err.Status).JSON(fiber.Map{
				"error": err.Message,
			})
		}

		return c.Next()
	}
}

// Error describes the first rejected field of a body.
type Error struct {
	Status     int
	Field      string
	Message    string
	Suspicious bool
}

func (e *Error) Error() string { return e.Message }

// CheckFields applies the body rules registered for path to fields. It
// returns nil when path has no rules or every field passes. maxLen <= 0
// means DefaultMaxFieldLength.
func CheckFields(path string, fields map[string]string, maxLen int) *Error {
	rules, ok := bodyRules[path]
	if !ok {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxFieldLength
	}

	body := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		body[k] = v
	}
	return checkBody(body, rules, maxLen)
}

func checkBody(body map[string]interface{}, rules []field, maxLen int) *Error {
	for _, f := range rules {
		raw, present := body[f.name]
		if !present || raw == nil {
			if f.required {
				return badRequest(f.name, fmt.Sprintf("%s is required", f.name))
			}
			continue
		}

		s, ok := raw.(string)
		if !ok {
			return badRequest(f.name, fmt.Sprintf("%s must be a string", f.name))
		}

		if f.required && strings.TrimSpace(s) == "" {
			return badRequest(f.name, fmt.Sprintf("%s is required", f.name))
		}

		if f.name == "language" && s != "" {
			if _, ok := language.Parse(s); !ok {
				return badRequest(f.name, fmt.Sprintf("unsupported language %q", s))
			}
		}

		if !f.text {
			continue
		}

		if utf8.RuneCountInString(s) > maxLen {
			return &Error{
				Status:  fiber.StatusRequestEntityTooLarge,
				Field:   f.name,
				Message: fmt.Sprintf("%s exceeds maximum length of %d characters", f.name, maxLen),
			}
		}

		if xssPattern.MatchString(s) {
			v := badRequest(f.name, "Invalid input content")
			v.Suspicious = true
			return v
		}
	}
	return nil
}

func badRequest(field, msg string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Field: field, Message: msg}
}
