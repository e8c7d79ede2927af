package snapshot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// importSchema type-checks the keys a backup may carry. Every key is
// optional and unknown keys are allowed, so partial and foreign backups
// still import.
const importSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "areas": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "topics": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "subArea": {"type": "string"},
                "status": {"type": "string"},
                "observations": {"type": "string"},
                "subTopics": {"type": "array", "items": {"type": "string"}}
              }
            }
          }
        }
      }
    },
    "hotTopics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "area": {"type": "string"},
          "category": {"type": "string"}
        }
      }
    },
    "hotTopicChecks": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    },
    "weeklySchedules": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": {"type": "array", "items": {"type": "string"}}
      }
    },
    "monthlyPlans": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "exams": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "date": {"type": "string"},
          "totalQuestions": {"type": "integer", "minimum": 0},
          "correctAnswers": {"type": "integer", "minimum": 0}
        }
      }
    },
    "notes": {"type": ["array", "string", "null"]},
    "flashcards": {"type": ["array", "null"]},
    "theme": {"type": ["string", "boolean", "null"]},
    "primaryColor": {"type": ["string", "null"]},
    "targetExamName": {"type": ["string", "null"]},
    "targetExamDate": {"type": ["string", "null"]}
  }
}`

var loadImportSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(importSchema))
})

// ValidateImport checks a backup payload against the import schema. The
// returned error wraps ErrMalformed and lists every violation.
func ValidateImport(data []byte) error {
	schema, err := loadImportSchema()
	if err != nil {
		return fmt.Errorf("compiling import schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(msgs, "; "))
}
