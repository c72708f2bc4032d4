package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"thirdcoast.systems/ytingest/internal/db"
	"thirdcoast.systems/ytingest/pkg/utils/format"
)

// WebhookPayload is the body of a webhook delivery. Every column of a video
// except id and processed_at.
type WebhookPayload struct {
	VideoID     string            `json:"video_id" validate:"required,max=100"`
	Title       *string           `json:"title" validate:"required,max=255"`
	Description *string           `json:"description"`
	PublishedAt *format.NaiveTime `json:"published_at" validate:"required"`
	ViewCount   *int64            `json:"view_count" validate:"required,gte=0"`
	LikeCount   *int64            `json:"like_count" validate:"required,gte=0"`
}

// Params converts a validated payload into upsert parameters. Values are taken
// verbatim; only the publish time offset is dropped.
func (p *WebhookPayload) Params() db.UpsertVideoParams {
	return db.UpsertVideoParams{
		VideoID:     p.VideoID,
		Title:       *p.Title,
		Description: p.Description,
		PublishedAt: p.PublishedAt.Time,
		ViewCount:   *p.ViewCount,
		LikeCount:   *p.LikeCount,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeWebhookPayload parses and validates a webhook body. The body must hold
// exactly one JSON object. A present but empty title is valid.
func DecodeWebhookPayload(v *validator.Validate, body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&p); err != nil {
		return nil, &ValidationError{Msg: "invalid JSON body: " + jsonProblem(err), Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Msg: "invalid JSON body: unexpected data after the object", Err: err}
	}
	if err := v.Struct(&p); err != nil {
		return nil, &ValidationError{Msg: describeValidation(err), Err: err}
	}
	return &p, nil
}

func jsonProblem(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type)
	}
	return err.Error()
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+": field required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s: at most %s characters", fe.Field(), fe.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s: must be >= %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
